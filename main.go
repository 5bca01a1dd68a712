package main

import (
	"context"
	"embed"
	"runtime"

	"shopicsv/app"
	"shopicsv/app/settings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	settingsService := settings.NewSettingsService()
	appInstance := app.NewApp(settingsService)
	// Autosave follows interval changes made in the settings dialog
	settingsService.SetChangeListener(appInstance)

	AppMenu := menu.NewMenu()
	if runtime.GOOS == "darwin" {
		AppMenu.Append(menu.AppMenu())
	}

	FileMenu := AppMenu.AddSubmenu("File")
	FileMenu.AddText("Upload File", keys.CmdOrCtrl("o"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:upload")
		}
	})
	FileMenu.AddText("Save", keys.CmdOrCtrl("s"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			go appInstance.SaveFile()
		}
	})
	FileMenu.AddText("Download", keys.Combo("s", keys.CmdOrCtrlKey, keys.ShiftKey), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:download")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Close File", keys.CmdOrCtrl("w"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:close")
		}
	})
	FileMenu.AddText("Close and Delete Saved Copy", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:closeDelete")
		}
	})
	FileMenu.AddSeparator()
	FileMenu.AddText("Settings", keys.CmdOrCtrl(","), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:settings")
		}
	})

	ViewMenu := AppMenu.AddSubmenu("View")
	ViewMenu.AddText("Filter by Type", keys.CmdOrCtrl("t"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:filterTypes")
		}
	})
	ViewMenu.AddText("Toggle Search", keys.CmdOrCtrl("f"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleSearch")
		}
	})
	ViewMenu.AddText("Columns", nil, func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:columns")
		}
	})
	ViewMenu.AddText("Toggle Console", keys.CmdOrCtrl("`"), func(_ *menu.CallbackData) {
		if appInstance != nil {
			wruntime.EventsEmit(appInstance.Ctx(), "menu:toggleConsole")
		}
	})

	width, height, err := appInstance.GetSavedWindowSize()
	if err != nil {
		println("Warning: Failed to get saved window size, using defaults:", err.Error())
		defaults := settings.Defaults()
		width, height = defaults.WindowWidth, defaults.WindowHeight
	}

	err = wails.Run(&options.App{
		Title:     "ShopiCSV",
		Width:     width,
		Height:    height,
		Menu:      AppMenu,
		MinWidth:  400,
		MinHeight: 300,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			settingsService.Startup(ctx)
			// Ensure instance ID is generated on first startup
			if _, err := settingsService.EnsureInstanceID(); err != nil {
				println("Warning: Failed to generate instance ID:", err.Error())
			}
			appInstance.Startup(ctx)
		},
		OnDomReady: func(ctx context.Context) {
			// Offer the stored session once the editor can render it
			go appInstance.RestoreSession()
		},
		OnShutdown: appInstance.Shutdown,
		Bind: []interface{}{
			appInstance,
			settingsService,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
