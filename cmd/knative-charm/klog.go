package main

import (
	"flag"
	"sync"

	klog "k8s.io/klog/v2"
)

var klogOnce sync.Once

// quietKlog limits klog noise from client-go. Hook output is collected by the
// lifecycle framework and must stay readable.
func quietKlog() {
	klogOnce.Do(func() {
		fs := flag.NewFlagSet("klog", flag.ContinueOnError)
		klog.InitFlags(fs)
		_ = fs.Set("stderrthreshold", "FATAL")
		_ = fs.Set("v", "0")
		_ = fs.Set("logtostderr", "false")
		_ = fs.Set("alsologtostderr", "false")
	})
}
