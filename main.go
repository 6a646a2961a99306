package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/arcadefe/pkg/app"
	"github.com/decker502/arcadefe/pkg/embedded"
)

var (
	configPath = flag.String("config", "arcadefe.yaml", "frontend config file")
	layout     = flag.String("layout", "", "layout to show (default: from settings)")
	list       = flag.String("list", "", "romlist to show (default: from config)")
	verbose    = flag.Bool("verbose", false, "verbose logging")
)

func main() {
	flag.Parse()
	embedded.Init(layoutsFS)

	a, err := app.NewApp(app.Config{
		Verbose:    *verbose,
		ConfigPath: *configPath,
		Layout:     *layout,
		List:       *list,
	})
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	w, h := a.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(a.Title())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(a.Fullscreen())

	runErr := ebiten.RunGame(a)
	if err := a.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}
