// Package autosave writes a world to a storage slot at most once per
// interval of game time.
package autosave

import (
	"context"
	"fmt"
)

// SlotKey is the slot a world autosaves into.
func SlotKey(worldID string) string { return worldID + ".autosave" }

type Sink interface {
	PutSlot(ctx context.Context, key string, raw []byte) error
}

type Source interface {
	GetSlot(ctx context.Context, key string) ([]byte, bool, error)
}

type Saver interface {
	SaveJSON() ([]byte, error)
}

type Loader interface {
	LoadJSON(raw []byte) error
}

type Autosaver struct {
	Key      string
	Interval float64
	Sink     Sink

	// OnSave, if set, observes every successful write.
	OnSave func(key string, raw []byte)

	last float64
}

func New(worldID string, interval float64, sink Sink) *Autosaver {
	return &Autosaver{Key: SlotKey(worldID), Interval: interval, Sink: sink}
}

// Last is the game time of the latest save.
func (a *Autosaver) Last() float64 { return a.last }

// Due reports whether a save at now would go through.
func (a *Autosaver) Due(now float64) bool { return now > a.last+a.Interval }

// Maybe saves w when more than Interval game time has passed since the last
// save. It reports whether a save happened.
func (a *Autosaver) Maybe(ctx context.Context, now float64, w Saver) (bool, error) {
	if !a.Due(now) {
		return false, nil
	}
	if err := a.Save(ctx, now, w); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes w unconditionally, e.g. when the editor closes.
func (a *Autosaver) Save(ctx context.Context, now float64, w Saver) error {
	if a.Sink == nil {
		return fmt.Errorf("autosave %s: no sink", a.Key)
	}
	raw, err := w.SaveJSON()
	if err != nil {
		return fmt.Errorf("autosave %s: %w", a.Key, err)
	}
	if err := a.Sink.PutSlot(ctx, a.Key, raw); err != nil {
		return fmt.Errorf("autosave %s: %w", a.Key, err)
	}
	a.last = now
	if a.OnSave != nil {
		a.OnSave(a.Key, raw)
	}
	return nil
}

// Restore loads the autosave slot into w if one exists.
func (a *Autosaver) Restore(ctx context.Context, src Source, w Loader) (bool, error) {
	raw, ok, err := src.GetSlot(ctx, a.Key)
	if err != nil {
		return false, fmt.Errorf("restore %s: %w", a.Key, err)
	}
	if !ok {
		return false, nil
	}
	if err := w.LoadJSON(raw); err != nil {
		return false, fmt.Errorf("restore %s: %w", a.Key, err)
	}
	return true, nil
}
