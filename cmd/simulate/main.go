// Command simulate is a host-side visualizer: it runs a bridge.Core
// against an in-process pins.Simulated bus, drives a scripted virtual
// keyboard across that bus on its own goroutine, and renders LED state and
// the last XT byte in an SDL2 window. Structured directly on
// vcs_main.go's sdl.Main/sdl.Do/window-surface pattern, swapping the
// Atari picture for a small status HUD.
package main

import (
	"flag"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/vakon84/at2xt/bridge"
	"github.com/vakon84/at2xt/diag"
	"github.com/vakon84/at2xt/keybuffer"
	"github.com/vakon84/at2xt/pins"
	"github.com/vakon84/at2xt/timer"
)

var (
	scale   = flag.Int("scale", 4, "Scale factor to render the status HUD")
	keyRate = flag.Duration("key_rate", 500*time.Millisecond, "How often the virtual keyboard sends a keystroke")
	script  = flag.String("script", "HELLO", "Sequence of A-Z/0-9 characters the virtual keyboard types, looped")
)

const (
	hudWidth  = 64
	hudHeight = 16
)

// fastImage mirrors vcs_main.go's direct-surface-poke Set, avoiding the
// GC churn of going through color.Color.Convert for every pixel.
type fastImage struct {
	surface *sdl.Surface
	data    []byte
}

func (f *fastImage) set(x, y int, r, g, b, a uint8) {
	i := int32(y)*f.surface.Pitch + int32(x)*int32(f.surface.Format.BytesPerPixel)
	f.data[i+0] = r
	f.data[i+1] = g
	f.data[i+2] = b
	f.data[i+3] = a
}

func main() {
	flag.Parse()

	bus := pins.NewSimulated()
	t := timer.NewSimulated()
	core := bridge.New(bus, t, keybuffer.DropNewest)
	bank := diag.NewBank(core)

	go runVirtualKeyboard(bus, *script, *keyRate)
	go func() {
		if err := core.Run(); err != nil {
			log.Fatalf("bridge exited: %v", err)
		}
	}()

	var window *sdl.Window
	fi := &fastImage{}

	sdl.Main(func() {
		var wg sync.WaitGroup
		wg.Add(1)
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				log.Fatalf("Can't init SDL: %v", err)
			}
			var err error
			window, err = sdl.CreateWindow("at2xt simulate", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
				int32(hudWidth**scale), int32(hudHeight**scale), sdl.WINDOW_SHOWN)
			if err != nil {
				log.Fatalf("Can't create window: %v", err)
			}
			fi.surface, err = window.GetSurface()
			if err != nil {
				log.Fatalf("Can't get window surface: %v", err)
			}
			fi.data = fi.surface.Pixels()
			wg.Done()
		})
		wg.Wait()
		defer func() {
			window.Destroy()
			sdl.Quit()
		}()

		for {
			sdl.Do(func() {
				drawHUD(fi, bank)
				window.UpdateSurface()
			})
			running := true
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				if _, ok := event.(*sdl.QuitEvent); ok {
					running = false
				}
			}
			if !running {
				return
			}
			time.Sleep(33 * time.Millisecond)
		}
	})
}

// drawHUD renders three status rows scaled up by *scale: LED mask across
// the top row, HOST_MODE/DEVICE_ACK as two indicator pixels, and the last
// XT byte as a row of 8 bits, MSB first.
func drawHUD(fi *fastImage, bank *diag.Bank) {
	for y := 0; y < hudHeight**scale; y++ {
		for x := 0; x < hudWidth**scale; x++ {
			fi.set(x, y, 0, 0, 0, 255)
		}
	}

	leds := bridge.LedMask(bank.Read(uint16(diag.RegLeds)))
	drawRow(fi, 0, []bool{
		leds&bridge.LedCapsLock != 0,
		leds&bridge.LedNumLock != 0,
		leds&bridge.LedScrollLock != 0,
	}, color.RGBA{0, 255, 0, 255})

	drawRow(fi, 1, []bool{
		bank.Read(uint16(diag.RegHostMode)) != 0,
		bank.Read(uint16(diag.RegDeviceAck)) != 0,
	}, color.RGBA{255, 255, 0, 255})

	xtByte := bank.Read(uint16(diag.RegLastXTByte))
	var bits []bool
	for i := 0; i < 8; i++ {
		bits = append(bits, xtByte&(1<<uint(7-i)) != 0)
	}
	drawRow(fi, 2, bits, color.RGBA{0, 128, 255, 255})
}

func drawRow(fi *fastImage, row int, lit []bool, c color.RGBA) {
	for i, on := range lit {
		if !on {
			continue
		}
		for dy := 0; dy < *scale; dy++ {
			for dx := 0; dx < *scale; dx++ {
				fi.set(i**scale+dx, row**scale+dy, c.R, c.G, c.B, c.A)
			}
		}
	}
}

// runVirtualKeyboard plays script in a loop, driving AT frames onto bus by
// hand: start bit, 8 data bits LSB-first, parity, stop, one falling edge
// per bit exactly as a real AT keyboard clocks them.
func runVirtualKeyboard(bus *pins.Simulated, script string, rate time.Duration) {
	// AT set-2 make-codes for A-Z then 0-9.
	set2 := []uint8{
		0x1C, 0x32, 0x21, 0x23, 0x24, 0x2B, 0x34, 0x33, 0x43, 0x3B, 0x42, 0x4B, 0x3A,
		0x31, 0x44, 0x4D, 0x15, 0x2D, 0x1B, 0x2C, 0x3C, 0x2A, 0x1D, 0x22, 0x35, 0x1A,
		0x45, 0x16, 0x1E, 0x26, 0x25, 0x2E, 0x36, 0x3D, 0x3E, 0x46,
	}
	codes := map[rune]uint8{}
	for i, r := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" {
		codes[r] = set2[i]
	}

	for {
		for _, r := range script {
			scan, ok := codes[r]
			if !ok {
				continue
			}
			sendATFrame(bus, scan)
			time.Sleep(rate)
		}
	}
}

func sendATFrame(bus *pins.Simulated, scan uint8) {
	bits := []bool{false} // start bit
	parity := 0
	for i := 0; i < 8; i++ {
		bit := scan&(1<<uint(i)) != 0
		bits = append(bits, bit)
		if bit {
			parity++
		}
	}
	bits = append(bits, parity%2 == 0) // odd parity
	bits = append(bits, true)          // stop bit

	for _, bit := range bits {
		if bit {
			bus.DriveRemoteRelease(pins.ATData)
		} else {
			bus.DriveRemoteLow(pins.ATData)
		}
		bus.DriveRemoteLow(pins.ATClock)
		time.Sleep(30 * time.Microsecond)
		bus.DriveRemoteRelease(pins.ATClock)
		time.Sleep(30 * time.Microsecond)
	}
}

