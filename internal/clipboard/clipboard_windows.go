//go:build windows

package clipboard

import (
	"fmt"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// oleClipboard reaches the Windows clipboard through an "htmlfile" COM
// automation object rather than raw user32 calls: its parentWindow
// exposes a clipboardData object with getData/setData, which is enough
// for plain text without writing any win32 syscall bindings by hand.
type oleClipboard struct{}

// New returns the windows clipboard, backed by go-ole automation.
func New() System { return oleClipboard{} }

func (oleClipboard) withClipboardData(fn func(cd *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitialize(0); err != nil {
		return fmt.Errorf("clipboard: CoInitialize: %w", err)
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("htmlfile")
	if err != nil {
		return fmt.Errorf("clipboard: create htmlfile object: %w", err)
	}
	defer unknown.Release()

	doc, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("clipboard: query IDispatch: %w", err)
	}
	defer doc.Release()

	winVar, err := oleutil.GetProperty(doc, "parentWindow")
	if err != nil {
		return fmt.Errorf("clipboard: get parentWindow: %w", err)
	}
	win := winVar.ToIDispatch()
	defer winVar.Clear()
	defer win.Release()

	cdVar, err := oleutil.GetProperty(win, "clipboardData")
	if err != nil {
		return fmt.Errorf("clipboard: get clipboardData: %w", err)
	}
	cd := cdVar.ToIDispatch()
	defer cdVar.Clear()
	defer cd.Release()

	return fn(cd)
}

func (c oleClipboard) Read() (string, error) {
	var text string
	err := c.withClipboardData(func(cd *ole.IDispatch) error {
		v, err := oleutil.CallMethod(cd, "getData", "Text")
		if err != nil {
			return fmt.Errorf("clipboard: getData: %w", err)
		}
		defer v.Clear()
		text = v.ToString()
		return nil
	})
	return text, err
}

func (c oleClipboard) Write(text string) error {
	return c.withClipboardData(func(cd *ole.IDispatch) error {
		if _, err := oleutil.CallMethod(cd, "setData", "Text", text); err != nil {
			return fmt.Errorf("clipboard: setData: %w", err)
		}
		return nil
	})
}
