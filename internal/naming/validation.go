package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

func validateDNS1123Label(name string, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name %q: %s", labelKind, name, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateAppName checks that name can be used for the Deployment, Service
// and ServiceAccount of an application.
func ValidateAppName(name string) error {
	return validateDNS1123Label(name, "app")
}

func ValidateNamespace(name string) error {
	return validateDNS1123Label(name, "namespace")
}

// ValidateObjectName checks a generated object name such as a cluster role.
func ValidateObjectName(name string) error {
	if name == "" {
		return fmt.Errorf("object name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return fmt.Errorf("invalid object name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}
