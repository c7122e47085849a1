package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/DenseView/internal/preview"
	"github.com/yildizm/DenseView/internal/selector"
	"github.com/yildizm/DenseView/internal/upload"
	"github.com/yildizm/DenseView/internal/watch"
)

// Thumbnail size in terminal cells
const (
	thumbCols = 32
	thumbRows = 8
)

type fileLoadedMsg struct {
	file      *selector.File
	thumb     *preview.Thumbnail
	fromWatch bool
}

type fileErrorMsg struct {
	path string
	err  error
}

type predictionMsg struct {
	result upload.Result
}

type watchFileMsg struct {
	path string
}

// LoadFile reads path and builds its thumbnail. A file that is not a decodable image still
// loads, only without a thumbnail.
func LoadFile(path string, maxBytes int64) (*selector.File, *preview.Thumbnail, error) {
	file, err := selector.Load(path, maxBytes)
	if err != nil {
		return nil, nil, err
	}
	thumb, err := preview.Decode(file.Data, thumbCols, thumbRows)
	if err != nil {
		return file, nil, nil
	}
	return file, thumb, nil
}

// LoadFileCommand runs LoadFile off the UI loop
func LoadFileCommand(path string, maxBytes int64, fromWatch bool) tea.Cmd {
	return func() tea.Msg {
		file, thumb, err := LoadFile(path, maxBytes)
		if err != nil {
			return fileErrorMsg{path: path, err: err}
		}
		return fileLoadedMsg{file: file, thumb: thumb, fromWatch: fromWatch}
	}
}

// SubmitCommand runs the request for ticket and hands the result back to Update
func SubmitCommand(ctx context.Context, ctrl *upload.Controller, ticket upload.Ticket) tea.Cmd {
	return func() tea.Msg {
		return predictionMsg{result: ctrl.Run(ctx, ticket)}
	}
}

// WaitForFileCommand blocks until the watcher reports a file or ctx ends
func WaitForFileCommand(ctx context.Context, w *watch.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case path := <-w.Files():
			return watchFileMsg{path: path}
		case <-ctx.Done():
			return nil
		}
	}
}
