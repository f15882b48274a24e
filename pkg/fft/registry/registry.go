// Package registry keeps the available fft.RealFFT backends. Backends
// register themselves from init().
package registry

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/xaionaro-go/speechenhance/pkg/fft"
)

type Factory interface {
	Name() string
	NewRealFFT(size int) (fft.RealFFT, error)
}

type factoryWithPriority struct {
	Priority int
	Factory
}

var factoryRegistry = map[reflect.Type]factoryWithPriority{}

func RegisterFactory(
	priority int,
	factory Factory,
) {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := factoryRegistry[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of RealFFT of type %v", t))
	}
	for _, registered := range factoryRegistry {
		if registered.Name() == factory.Name() {
			panic(fmt.Errorf("there is already registered a factory of RealFFT with name '%s'", factory.Name()))
		}
	}
	factoryRegistry[t] = factoryWithPriority{
		Priority: priority,
		Factory:  factory,
	}
}

// Factories returns the registered factories, the highest priority first.
func Factories() []Factory {
	var factoriesWithPriorities []factoryWithPriority
	for _, factory := range factoryRegistry {
		factoriesWithPriorities = append(factoriesWithPriorities, factory)
	}
	sort.Slice(factoriesWithPriorities, func(i, j int) bool {
		if factoriesWithPriorities[i].Priority != factoriesWithPriorities[j].Priority {
			return factoriesWithPriorities[i].Priority > factoriesWithPriorities[j].Priority
		}
		return factoriesWithPriorities[i].Name() < factoriesWithPriorities[j].Name()
	})

	var factories []Factory
	for _, factory := range factoriesWithPriorities {
		factories = append(factories, factory.Factory)
	}
	return factories
}

func Names() []string {
	var names []string
	for _, factory := range Factories() {
		names = append(names, factory.Name())
	}
	return names
}

// NewRealFFT creates a RealFFT of the given size using the backend with the
// given name, or the highest priority backend if the name is empty.
func NewRealFFT(name string, size int) (fft.RealFFT, error) {
	if !fft.IsPowerOfTwo(size) || size < 2 {
		return nil, fmt.Errorf("FFT size %d is not a power of two >= 2", size)
	}
	for _, factory := range Factories() {
		if name != "" && factory.Name() != name {
			continue
		}
		result, err := factory.NewRealFFT(size)
		if err != nil {
			return nil, fmt.Errorf("unable to initialize the FFT backend '%s': %w", factory.Name(), err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown FFT backend '%s', known backends: %v", name, Names())
}
