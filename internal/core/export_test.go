package core

import "os"

// SetSignals injects the signal channel Run blocks on.
func (a *App) SetSignals(ch chan os.Signal) {
	a.signals = ch
}
