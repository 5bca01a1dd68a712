package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shopicsv/app/fileloader"
	"shopicsv/app/session"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// UploadResult describes a loaded file
type UploadResult struct {
	Info session.Info `json:"info"`
}

// OpenFileDialog opens a file dialog and returns the selected file path.
// Compressed CSV, XLSX and JSON files are accepted as well.
func (a *App) OpenFileDialog() (string, error) {
	filePath, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Open Translation File",
		Filters: []runtime.FileFilter{
			{DisplayName: "Translation Files", Pattern: fileloader.DialogPattern()},
		},
	})
	if err != nil {
		return "", err
	}
	return filePath, nil
}

// UploadFile loads the file at path into the editor. jsonPath selects the
// records of a JSON file and is ignored for other types.
func (a *App) UploadFile(path, jsonPath string) (*UploadResult, error) {
	if a.session == nil {
		return nil, fmt.Errorf("app not initialised")
	}
	if !fileloader.IsAccepted(path) {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Base(path))
	}

	res, err := fileloader.Load(path, fileloader.Options{JSONPath: jsonPath})
	if err != nil {
		a.Log("error", fmt.Sprintf("[UPLOAD] failed to load %s: %v", path, err))
		return nil, err
	}

	err = a.session.Upload(a.ctx, session.File{
		Name:         res.Name,
		Size:         res.Size,
		LastModified: res.LastModified,
		Records:      res.Records,
	})
	if err != nil && a.session.State() != session.StateEditing {
		return nil, err
	}
	// The file is open even when its local copy failed; the alert says so
	return &UploadResult{Info: a.session.Info()}, nil
}

// UploadFileWithDialog asks for a file and loads it
func (a *App) UploadFileWithDialog() (*UploadResult, error) {
	path, err := a.OpenFileDialog()
	if err != nil || path == "" {
		return nil, err
	}
	return a.UploadFile(path, "")
}

// SaveFile runs a manual save with a visible confirmation
func (a *App) SaveFile() (*session.SaveResult, error) {
	if a.session == nil {
		return nil, fmt.Errorf("app not initialised")
	}
	res, err := a.session.Save(a.ctx, session.SaveOptions{DisplayMsg: true})
	if errors.Is(err, session.ErrBusy) || errors.Is(err, session.ErrNoFile) {
		a.Log("debug", fmt.Sprintf("[SAVE] ignored: %v", err))
		return &res, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// DownloadFile saves the file, asks where to write it and writes it as CSV.
// The file is closed afterwards. An empty result means the user cancelled.
func (a *App) DownloadFile() (string, error) {
	if a.session == nil {
		return "", fmt.Errorf("app not initialised")
	}
	if a.session.State() != session.StateEditing {
		return "", session.ErrNoFile
	}
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Download Translation File",
		DefaultFilename: a.session.DownloadName(),
		Filters:         []runtime.FileFilter{{DisplayName: "CSV Files", Pattern: "*.csv"}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to open save dialog: %w", err)
	}
	if path == "" {
		return "", nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	_, err = a.session.Download(a.ctx, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	a.Log("info", fmt.Sprintf("[DOWNLOAD] wrote %s", path))
	return path, nil
}

// CloseFile closes the open file. With deleteSnapshot the user is asked to
// confirm and the stored copy is removed too.
func (a *App) CloseFile(deleteSnapshot bool) (bool, error) {
	if a.session == nil {
		return false, fmt.Errorf("app not initialised")
	}
	return a.session.Close(a.ctx, deleteSnapshot)
}

// RestoreSession offers the stored session, once per run
func (a *App) RestoreSession() (bool, error) {
	if a.session == nil {
		return false, fmt.Errorf("app not initialised")
	}
	return a.session.Restore(a.ctx)
}

// GetFileInfo describes the open file
func (a *App) GetFileInfo() session.Info {
	if a.session == nil {
		return session.Info{State: session.StateEmpty.String()}
	}
	return a.session.Info()
}
