// Command cpurunner drives a ROM headlessly through the core, streaming
// serial output to stdout and optionally detecting pass/fail markers
// emitted by test ROMs (e.g. Blargg's test suite).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/corvidae-labs/dmgcore/internal/gb"
	"github.com/corvidae-labs/dmgcore/internal/hostglue/romsource"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, or an archive romsource can unpack)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM")
	frames := flag.Int("frames", 5000, "max frames to run")
	until := flag.String("until", "Passed", "stop when serial output contains this substring (case-insensitive); empty to disable")
	auto := flag.Bool("auto", false, "auto-detect 'Passed' or 'Failed N tests' in serial output and exit 0/1")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout; 0 disables")
	serialWindow := flag.Int("serialWindow", 8192, "bytes of recent serial output retained for diagnostics on fail")
	flag.Parse()

	if *romPath == "" {
		log.Fatal("-rom is required")
	}
	rom, err := romsource.Load(*romPath)
	if err != nil {
		log.Fatalf("load rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		if boot, err = romsource.Load(*bootPath); err != nil {
			log.Fatalf("load bootrom: %v", err)
		}
	}

	var serial bytes.Buffer
	hooks := &romsource.FileHooks{
		ROM:     rom,
		RAM:     make([]byte, 0x8000),
		BootROM: boot,
		OnSerialTx: func(v uint8) {
			serial.WriteByte(v)
			os.Stdout.Write([]byte{v})
		},
		OnSerialRx: func() (uint8, iohooks.SerialResult) { return 0, iohooks.SerialNoConnection },
		OnError: func(kind iohooks.ErrorKind, addr uint16) {
			log.Fatalf("fatal: %s at %#04x", kind, addr)
		},
	}

	core := gb.New()
	if err := core.Init(hooks); err != gb.NoError {
		log.Fatalf("init: %v", err)
	}
	if len(boot) >= 0x100 {
		core.SetBootROM(true)
	}
	core.Reset()

	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	failRe := regexp.MustCompile(`(?i)failed\s+(\d+)\s+tests?`)

	ringSize := *serialWindow
	if ringSize < 256 {
		ringSize = 256
	}

	for i := 0; i < *frames; i++ {
		core.RunFrame()

		s := serial.String()
		if *auto {
			if strings.Contains(strings.ToLower(s), "passed") {
				fmt.Printf("\nDetected PASS in serial output.\nDone: frames=%d elapsed=%s\n",
					i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(0)
			}
			if m := failRe.FindStringSubmatch(s); m != nil {
				printRecentSerial(s, ringSize)
				fmt.Printf("\nDetected %s in serial output.\nDone: frames=%d elapsed=%s\n",
					m[0], i+1, time.Since(start).Truncate(time.Millisecond))
				os.Exit(1)
			}
		} else if *until != "" && strings.Contains(strings.ToLower(s), strings.ToLower(*until)) {
			fmt.Printf("\nDetected %q in serial output.\nDone: frames=%d elapsed=%s\n",
				*until, i+1, time.Since(start).Truncate(time.Millisecond))
			return
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			os.Exit(2)
		}
	}
	fmt.Printf("\nDone: frames=%d elapsed=%s\n", *frames, time.Since(start).Truncate(time.Millisecond))
}

func printRecentSerial(s string, window int) {
	if len(s) > window {
		s = s[len(s)-window:]
	}
	fmt.Printf("\n--- recent serial (last %d bytes) ---\n%s\n--- end serial ---\n", len(s), s)
}
