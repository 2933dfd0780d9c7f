// Package main provides the entry point for the VolScope viewer.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"volscope/internal/app"
	"volscope/internal/render"
	"volscope/internal/stream"
	"volscope/internal/version"
	"volscope/ui/prefs"
	"volscope/ui/viewer"
)

const appTitle = "VolScope"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	fa := fyneapp.New()
	fa.Settings().SetTheme(&app.VolscopeTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()
	session := stream.NewSession(nil)

	win := fa.NewWindow(appTitle)
	win.Resize(fyne.NewSize(
		float32(appPrefs.Float(prefs.KeyWindowWidth, 1280)),
		float32(appPrefs.Float(prefs.KeyWindowHeight, 860)),
	))

	appState.OrthoViews = appPrefs.Bool(prefs.KeyOrthoViews, true)

	view := viewer.New(appState, session)
	status := widget.NewLabel("")
	view.OnHover = func(probes []render.LayerProbe) {
		status.SetText(probeText(appState, probes))
	}
	appState.On(app.EventSliceChanged, func(data interface{}) {
		win.SetTitle(windowTitle(appState))
	})
	appState.On(app.EventTimeChanged, func(data interface{}) {
		win.SetTitle(windowTitle(appState))
	})
	appState.On(app.EventDatasetLoaded, func(data interface{}) {
		win.SetTitle(windowTitle(appState))
	})

	win.SetContent(container.NewBorder(nil, status, nil, nil, view))
	setupKeys(win, appState, view)

	// Handle command line arguments
	path := appPrefs.String(prefs.KeyLastDataset)
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path != "" {
		if err := appState.LoadDataset(path); err != nil {
			log.Printf("Failed to load dataset %s: %v", path, err)
		} else {
			appPrefs.SetString(prefs.KeyLastDataset, path)
		}
	}

	setupHotReload(win, appPrefs)

	win.SetCloseIntercept(func() {
		size := win.Canvas().Size()
		appPrefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
		appPrefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
		appPrefs.SetBool(prefs.KeyOrthoViews, appState.OrthoViews)
		if err := appPrefs.Save(); err != nil {
			log.Printf("Failed to save preferences: %v", err)
		}
		win.Close()
	})

	win.ShowAndRun()
}

// windowTitle shows the dataset name and the current slice/time cursor.
func windowTitle(s *app.State) string {
	if s.DatasetName == "" {
		return appTitle
	}
	return fmt.Sprintf("%s - %s  z=%d t=%d", appTitle, s.DatasetName, s.SliceIndex, s.TimeIndex)
}

// probeText formats the hover readout: per-channel intensities and, for
// segmentation layers, the label id under the pointer.
func probeText(s *app.State, probes []render.LayerProbe) string {
	if len(probes) == 0 {
		return ""
	}
	var parts []string
	for _, p := range probes {
		name := s.Names[p.LayerID]
		if name == "" {
			name = fmt.Sprintf("ch%d", p.LayerID)
		}
		if p.Segmentation {
			parts = append(parts, fmt.Sprintf("%s: label %d", name, p.Label))
			continue
		}
		vals := make([]string, len(p.Values))
		for i, v := range p.Values {
			vals[i] = fmt.Sprintf("%d", v)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(vals, ",")))
	}
	return strings.Join(parts, "   ")
}

// setupKeys binds keyboard navigation. Shift is tracked through raw key
// events so the slice step can switch between 1 and 10.
func setupKeys(win fyne.Window, state *app.State, view *viewer.Viewer) {
	shift := false
	sliceStep := func() int {
		if shift {
			return viewer.SliceStepFast
		}
		return 1
	}

	handle := func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyLeft:
			view.PanBy(viewer.PanStep, 0)
		case fyne.KeyRight:
			view.PanBy(-viewer.PanStep, 0)
		case fyne.KeyUp:
			view.PanBy(0, viewer.PanStep)
		case fyne.KeyDown:
			view.PanBy(0, -viewer.PanStep)
		case fyne.KeyQ:
			view.RotateBy(-viewer.RotateStep)
		case fyne.KeyE:
			view.RotateBy(viewer.RotateStep)
		case fyne.KeyPageUp:
			state.StepSlice(sliceStep())
		case fyne.KeyPageDown:
			state.StepSlice(-sliceStep())
		case fyne.KeyComma:
			state.StepTime(-1)
		case fyne.KeyPeriod:
			state.StepTime(1)
		case fyne.KeyPlus, fyne.KeyEqual:
			view.Zoom(viewer.ZoomStep)
		case fyne.KeyMinus:
			view.Zoom(1 / viewer.ZoomStep)
		case fyne.KeyR:
			view.ResetView()
		case fyne.KeyEscape:
			state.SelectTrack(app.NoTrack)
			state.FollowTrack(state.FollowedTrack)
		}
	}

	if dc, ok := win.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
				shift = true
				return
			}
			handle(ev)
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
				shift = false
			}
		})
		return
	}
	win.Canvas().SetOnTypedKey(handle)
}

// setupHotReload configures automatic restart detection when the binary is recompiled.
func setupHotReload(win fyne.Window, appPrefs *prefs.Prefs) {
	reloader := app.NewHotReloader(2 * time.Second)
	if reloader == nil {
		log.Println("Hot reload: unable to determine executable path")
		return
	}

	log.Printf("Hot reload: watching %s (modified %s)",
		reloader.ExecPath(), reloader.StartupTime().Format("15:04:05"))

	reloader.OnNewBinary(func() {
		log.Println("Hot reload: newer binary detected")
		dialog.ShowConfirm("New Version Available",
			"The application binary has been updated.\nRestart now?",
			func(restart bool) {
				if restart {
					log.Println("Hot reload: saving preferences before restart...")
					if err := appPrefs.Save(); err != nil {
						log.Printf("Failed to save preferences: %v", err)
					}
					log.Println("Hot reload: restarting...")
					if err := reloader.Restart(); err != nil {
						log.Printf("Hot reload: restart failed: %v", err)
					}
					return
				}
				reloader.ResetBaseline()
				reloader.Start()
			}, win)
	})

	reloader.Start()
}
