package route

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouterLoader mounts routes on the management engine.
type RouterLoader func(r *gin.Engine) error

// Plugin is a named set of management routes. Lower Order mounts first.
type Plugin struct {
	Name   string
	Order  int
	Loader RouterLoader
}

var (
	plugins  []Plugin
	sortOnce sync.Once
)

// Register adds a route plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

func sorted() []Plugin {
	sortOnce.Do(func() {
		sort.SliceStable(plugins, func(i, j int) bool { return plugins[i].Order < plugins[j].Order })
	})
	return plugins
}

// Names lists registered route plugins in mount order.
func Names() []string {
	var names []string
	for _, p := range sorted() {
		names = append(names, p.Name)
	}
	return names
}

// Mount runs every registered loader against r in order.
func Mount(r *gin.Engine) error {
	for _, p := range sorted() {
		if err := p.Loader(r); err != nil {
			return err
		}
	}
	return nil
}
