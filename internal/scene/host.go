package scene

import (
	"context"
	"fmt"
	"sync"
)

// Host is the content-creation environment the operator runs in.
type Host interface {
	// ActiveSelection returns the selected object, or nil when nothing is
	// selected.
	ActiveSelection(ctx context.Context) (*Object, error)

	// DuplicateObject adds a copy of src holding its skeleton but no
	// action, named UpdatedName(src.Name) or a numbered variant when that
	// name is taken. src is not modified.
	DuplicateObject(ctx context.Context, src *Object) (*Object, error)

	// RemoveObject deletes obj and its track container.
	RemoveObject(ctx context.Context, obj *Object) error

	// Tracks returns the animation track container of obj.
	Tracks(ctx context.Context, obj *Object) (TrackContainer, error)

	// UserNotify surfaces a message to the user. It must not fail.
	UserNotify(msg string)
}

// UpdatedName is the name of the object that archives src's rebakes.
func UpdatedName(src string) string {
	return src + "-updated"
}

// maxNameSuffix bounds the numbered variants tried for a taken name.
const maxNameSuffix = 999

// MemoryHost is an in-memory Host.
type MemoryHost struct {
	mu         sync.Mutex
	objects    map[string]*Object
	reserved   map[string]bool
	active     string
	containers map[string]TrackContainer
	notes      []string

	// NewContainer creates the track container for an object on first
	// use. Defaults to NewMemoryContainer.
	NewContainer func(obj *Object) TrackContainer
}

// NewMemoryHost returns a host holding objs. Nothing is selected.
func NewMemoryHost(objs ...*Object) *MemoryHost {
	h := &MemoryHost{
		objects:    make(map[string]*Object, len(objs)),
		reserved:   make(map[string]bool),
		containers: make(map[string]TrackContainer),
	}
	for _, o := range objs {
		h.objects[o.Name] = o
	}
	return h
}

// Add registers obj, replacing any object with the same name.
func (h *MemoryHost) Add(obj *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects[obj.Name] = obj
}

// Reserve marks names as taken without adding objects, so DuplicateObject
// never reuses them. Used for objects that live outside the host, such as
// earlier outputs in a persistent archive.
func (h *MemoryHost) Reserve(names ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range names {
		h.reserved[n] = true
	}
}

// Select makes the named object the active selection. An empty name clears
// the selection.
func (h *MemoryHost) Select(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if name != "" {
		if _, ok := h.objects[name]; !ok {
			return fmt.Errorf("select: no object %q", name)
		}
	}
	h.active = name
	return nil
}

// Object returns the named object.
func (h *MemoryHost) Object(name string) (*Object, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[name]
	return o, ok
}

// ActiveSelection implements Host.
func (h *MemoryHost) ActiveSelection(ctx context.Context) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == "" {
		return nil, nil
	}
	return h.objects[h.active], nil
}

// DuplicateObject implements Host. Taken names get a numeric suffix:
// "Rig-updated", "Rig-updated.001", "Rig-updated.002", ...
func (h *MemoryHost) DuplicateObject(ctx context.Context, src *Object) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("duplicate object: nil object")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	name, err := h.freeName(UpdatedName(src.Name))
	if err != nil {
		return nil, err
	}
	dup := &Object{
		Name:     name,
		Kind:     src.Kind,
		Skeleton: src.Skeleton.Clone(),
		Source:   src.Name,
	}
	h.objects[name] = dup
	return dup, nil
}

func (h *MemoryHost) freeName(base string) (string, error) {
	taken := func(n string) bool {
		_, ok := h.objects[n]
		return ok || h.reserved[n]
	}
	if !taken(base) {
		return base, nil
	}
	for i := 1; i <= maxNameSuffix; i++ {
		name := fmt.Sprintf("%s.%03d", base, i)
		if !taken(name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("duplicate object: no free name for %q", base)
}

// RemoveObject implements Host. Removing the active object clears the
// selection.
func (h *MemoryHost) RemoveObject(ctx context.Context, obj *Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("remove object: nil object")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.objects[obj.Name] != obj {
		return fmt.Errorf("remove object: no object %q", obj.Name)
	}
	delete(h.objects, obj.Name)
	delete(h.containers, obj.Name)
	if h.active == obj.Name {
		h.active = ""
	}
	return nil
}

// Tracks implements Host.
func (h *MemoryHost) Tracks(ctx context.Context, obj *Object) (TrackContainer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("tracks: nil object")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.containers[obj.Name]; ok {
		return c, nil
	}
	var c TrackContainer
	if h.NewContainer != nil {
		c = h.NewContainer(obj)
	} else {
		c = NewMemoryContainer()
	}
	h.containers[obj.Name] = c
	return c, nil
}

// UserNotify implements Host by recording msg.
func (h *MemoryHost) UserNotify(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notes = append(h.notes, msg)
}

// Notifications returns the messages passed to UserNotify, oldest first.
func (h *MemoryHost) Notifications() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.notes))
	copy(out, h.notes)
	return out
}
