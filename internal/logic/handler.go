package logic

// Handler receives button events.
type Handler interface {
	OnButtonEvent(e Event)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(e Event)

// OnButtonEvent calls f(e).
func (f HandlerFunc) OnButtonEvent(e Event) {
	f(e)
}

// Callbacks dispatches events to one optional function per event type.
// Each callback receives the registration parameter; OnClick also receives
// the click count. Nil callbacks are skipped.
type Callbacks struct {
	OnButtonDown      func(param any)
	OnButtonUp        func(param any)
	OnClick           func(param any, clickCount int)
	OnLongPressBegin  func(param any)
	OnDuringLongPress func(param any)
	OnLongPressEnd    func(param any)
}

// OnButtonEvent implements Handler.
func (c *Callbacks) OnButtonEvent(e Event) {
	var fn func(any)
	switch e.Type {
	case EventButtonDown:
		fn = c.OnButtonDown
	case EventButtonUp:
		fn = c.OnButtonUp
	case EventClick:
		if c.OnClick != nil {
			c.OnClick(e.Param, e.ClickCount)
		}
		return
	case EventLongPressBegin:
		fn = c.OnLongPressBegin
	case EventDuringLongPress:
		fn = c.OnDuringLongPress
	case EventLongPressEnd:
		fn = c.OnLongPressEnd
	}
	if fn != nil {
		fn(e.Param)
	}
}
