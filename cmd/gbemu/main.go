// Command gbemu is a minimal ebiten front-end for the core: it loads a
// ROM (and optional boot ROM and battery save) from disk, drives one
// core frame per display tick, and maps a handful of keys to the
// joypad.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/corvidae-labs/dmgcore/internal/gb"
	"github.com/corvidae-labs/dmgcore/internal/hostglue/romsource"
	"github.com/corvidae-labs/dmgcore/internal/hostglue/savefile"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"
)

const (
	screenW = 160
	screenH = 144
)

// shadeColor is the classic four-shade DMG green palette, indexed by a
// pixel's low 2 bits regardless of its BG/OBJ0/OBJ1 tag.
var shadeColor = [4][4]byte{
	{0x9B, 0xBC, 0x0F, 0xFF},
	{0x8B, 0xAC, 0x0F, 0xFF},
	{0x30, 0x62, 0x30, 0xFF},
	{0x0F, 0x38, 0x0F, 0xFF},
}

type app struct {
	core    *gb.GB
	scale   int
	frame   *ebiten.Image
	pixels  []byte // RGBA, screenW*screenH*4
	romPath string
	clipOK  bool
}

func newApp(core *gb.GB, scale int, romPath string) *app {
	a := &app{
		core:    core,
		scale:   scale,
		frame:   ebiten.NewImage(screenW, screenH),
		pixels:  make([]byte, screenW*screenH*4),
		romPath: romPath,
		clipOK:  clipboard.Init() == nil,
	}
	core.SetLCD(a.drawLine)
	return a
}

func (a *app) drawLine(line uint8, row [160]uint8) {
	off := int(line) * screenW * 4
	for x, px := range row {
		c := shadeColor[px&0x03]
		copy(a.pixels[off+x*4:off+x*4+4], c[:])
	}
}

func (a *app) Update() error {
	var joyp uint8 = 0xFF
	type binding struct {
		key  ebiten.Key
		mask uint8
	}
	for _, b := range []binding{
		{ebiten.KeyZ, gb.JoypadA},
		{ebiten.KeyX, gb.JoypadB},
		{ebiten.KeyShiftRight, gb.JoypadSelect},
		{ebiten.KeyEnter, gb.JoypadStart},
		{ebiten.KeyRight, gb.JoypadRight},
		{ebiten.KeyLeft, gb.JoypadLeft},
		{ebiten.KeyUp, gb.JoypadUp},
		{ebiten.KeyDown, gb.JoypadDown},
	} {
		if ebiten.IsKeyPressed(b.key) {
			joyp &^= b.mask
		}
	}
	a.core.SetJoypad(joyp)
	a.core.RunFrame()

	if a.clipOK && inpututil.IsKeyJustPressed(ebiten.KeyC) {
		clipboard.Write(clipboard.FmtText, []byte(a.romPath))
	}
	return nil
}

func (a *app) Draw(screen *ebiten.Image) {
	a.frame.WritePixels(a.pixels)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.scale), float64(a.scale))
	screen.DrawImage(a.frame, op)
}

func (a *app) Layout(outsideW, outsideH int) (int, int) {
	return screenW * a.scale, screenH * a.scale
}

func main() {
	romPath := flag.String("rom", "", "path to ROM (.gb, or an archive romsource can unpack)")
	bootPath := flag.String("bootrom", "", "optional DMG boot ROM")
	scale := flag.Int("scale", 3, "window scale")
	title := flag.String("title", "gbemu", "window title")
	flag.Parse()

	path := *romPath
	if path == "" {
		picked, err := romsource.AskForFile("Select a Game Boy ROM", ".")
		if err != nil {
			log.Fatalf("no ROM selected: %v", err)
		}
		path = picked
	}

	rom, err := romsource.Load(path)
	if err != nil {
		log.Fatalf("load rom: %v", err)
	}
	var boot []byte
	if *bootPath != "" {
		if boot, err = romsource.Load(*bootPath); err != nil {
			log.Fatalf("load bootrom: %v", err)
		}
	}

	savPath := savefile.Path(path)

	core := gb.New()
	probe := &romsource.FileHooks{ROM: rom}
	if err := core.Init(probe); err != gb.NoError {
		log.Fatalf("init: %v", err)
	}
	ram := savefile.Load(savPath, core.GetSaveSize())

	hooks := &romsource.FileHooks{
		ROM:        rom,
		RAM:        ram,
		BootROM:    boot,
		OnSerialRx: func() (uint8, iohooks.SerialResult) { return 0, iohooks.SerialNoConnection },
		OnError: func(kind iohooks.ErrorKind, addr uint16) {
			log.Fatalf("fatal: %s at %#04x", kind, addr)
		},
	}
	if err := core.Init(hooks); err != gb.NoError {
		log.Fatalf("re-init with RAM: %v", err)
	}
	if len(boot) >= 0x100 {
		core.SetBootROM(true)
	}
	core.Reset()

	a := newApp(core, *scale, path)
	ebiten.SetWindowTitle(*title + " - " + core.GetROMName())
	ebiten.SetWindowSize(screenW**scale, screenH**scale)

	saver := savefile.NewPersister(savPath)
	defer func() {
		if core.GetSaveSize() > 0 {
			if _, err := saver.Save(ram); err != nil {
				log.Printf("save battery RAM: %v", err)
			}
		}
	}()

	if err := ebiten.RunGame(a); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
