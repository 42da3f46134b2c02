package cliparam

import (
	"reflect"
	"sync"
)

// CapabilityResolver supplies collaborator services to validation rules.
//
// Implementations must tolerate concurrent and reentrant calls: one Bind may
// resolve many times, and independent Bind calls may run in parallel.
type CapabilityResolver interface {
	Resolve(typ reflect.Type) (any, bool)
}

// ResolverFunc adapts a function to CapabilityResolver.
type ResolverFunc func(typ reflect.Type) (any, bool)

func (fn ResolverFunc) Resolve(typ reflect.Type) (any, bool) {
	return fn(typ)
}

///////////////////////////////////////////////////////////////////////////////
// ServiceRegistry
///////////////////////////////////////////////////////////////////////////////

// ServiceRegistry is a small thread-safe CapabilityResolver keyed by type.
//
// Instances registered with Register are returned as-is. Factories
// registered with RegisterFactory are called lazily, at most once, even
// under concurrent access; the produced instance is then shared.
type ServiceRegistry struct {
	entries sync.Map // map[reflect.Type]*serviceEntry
}

// serviceEntry holds one registered service and its lazy initialisation
type serviceEntry struct {
	once     sync.Once
	factory  func() any
	instance any
}

func (se *serviceEntry) get() any {
	se.once.Do(func() {
		if se.factory != nil {
			se.instance = se.factory()
			se.factory = nil
		}
	})
	return se.instance
}

// NewServiceRegistry creates an empty registry
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{}
}

// Resolve implements CapabilityResolver.
func (sr *ServiceRegistry) Resolve(typ reflect.Type) (any, bool) {
	v, ok := sr.entries.Load(typ)
	if !ok {
		return nil, false
	}
	return v.(*serviceEntry).get(), true
}

// Delete removes the service registered for typ
func (sr *ServiceRegistry) Delete(typ reflect.Type) {
	sr.entries.Delete(typ)
}

// Clear removes every registered service
func (sr *ServiceRegistry) Clear() {
	sr.entries.Range(func(key, _ any) bool {
		sr.entries.Delete(key)
		return true
	})
}

func (sr *ServiceRegistry) store(typ reflect.Type, entry *serviceEntry) {
	sr.entries.Store(typ, entry)
}

// Register makes instance resolvable as T, replacing any previous entry.
func Register[T any](sr *ServiceRegistry, instance T) {
	entry := &serviceEntry{instance: instance}
	entry.once.Do(func() {})
	sr.store(reflect.TypeOf((*T)(nil)).Elem(), entry)
}

// RegisterFactory makes T resolvable through a lazily invoked factory.
func RegisterFactory[T any](sr *ServiceRegistry, factory func() T) {
	sr.store(reflect.TypeOf((*T)(nil)).Elem(), &serviceEntry{
		factory: func() any { return factory() },
	})
}
