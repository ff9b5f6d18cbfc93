package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
)

// init collects CPU profile data into default.pgo when -pgo is given,
// stopping on interrupt.
func init() {
	for _, arg := range os.Args {
		if arg != "-pgo" && arg != "--pgo" {
			continue
		}
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		go func() {
			f, err := os.Create("default.pgo")
			if err != nil {
				return
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				return
			}
			<-sigChan
			pprof.StopCPUProfile()
			f.Close()
			os.Exit(130)
		}()
		return
	}
}
