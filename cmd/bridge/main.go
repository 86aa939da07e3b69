// Command bridge is the firmware entrypoint: wire a Pins backend (real
// GPIO, or an in-process simulated bus for development) to a bridge.Core
// and run the FSM forever. Flag handling and log.Fatalf-on-setup-error
// follow vcs_main.go's style.
package main

import (
	"flag"
	"log"

	"github.com/vakon84/at2xt/bridge"
	"github.com/vakon84/at2xt/gpiopins"
	"github.com/vakon84/at2xt/keybuffer"
	"github.com/vakon84/at2xt/pins"
	"github.com/vakon84/at2xt/timer"
)

var (
	simulate = flag.Bool("simulate", false, "If true, run against an in-process simulated bus instead of real GPIO")
	panicked = flag.Bool("panic_on_overflow", false, "If true, a full keycode buffer panics instead of dropping the new frame")

	atClockPin = flag.String("at_clock_pin", "GPIO23", "GPIO pin name for AT_CLK")
	atDataPin  = flag.String("at_data_pin", "GPIO24", "GPIO pin name for AT_DATA")
	xtClockPin = flag.String("xt_clock_pin", "GPIO17", "GPIO pin name for XT_CLK")
	xtDataPin  = flag.String("xt_data_pin", "GPIO27", "GPIO pin name for XT_DATA")
	xtSensePin = flag.String("xt_sense_pin", "GPIO22", "GPIO pin name for XT_SENSE")
)

func main() {
	flag.Parse()

	policy := keybuffer.DropNewest
	if *panicked {
		policy = keybuffer.Panic
	}

	var p pins.Pins
	var t timer.Timer
	if *simulate {
		p = pins.NewSimulated()
		t = timer.NewSimulated()
	} else {
		gp, err := gpiopins.Open(gpiopins.Names{
			ATClock: *atClockPin,
			ATData:  *atDataPin,
			XTClock: *xtClockPin,
			XTData:  *xtDataPin,
			XTSense: *xtSensePin,
		})
		if err != nil {
			log.Fatalf("Can't open GPIO: %v", err)
		}
		defer gp.Close()
		p = gp
		t = timer.NewRealTime()
	}

	core := bridge.New(p, t, policy)

	if err := core.Run(); err != nil {
		log.Fatalf("bridge exited: %v", err)
	}
}
