package batch

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// PluginSettings is implemented by plugins that persist their own state.
// group is the plugin's sub-group below the chain's group.
type PluginSettings interface {
	SaveSettings(s settings.Store, group string)
	LoadSettings(s settings.Store, group string)
}

type pluginHandle struct {
	id     string
	plugin core.Plugin
	runID  string
	err    error
}

// PluginChain pipes the image through a list of plugin actions.
type PluginChain struct {
	host core.PluginHost

	// ids are "pluginName | actionName" strings in run order.
	ids []string

	loadMu  sync.Mutex
	loaded  bool
	handles []pluginHandle

	// runMu serialises plugins that are not safe for concurrent use.
	runMu sync.Mutex
}

// NewPluginChain returns an empty chain resolving plugins through host.
func NewPluginChain(host core.PluginHost) *PluginChain {
	return &PluginChain{host: host}
}

func (p *PluginChain) Name() string         { return PluginChainName }
func (p *PluginChain) SettingsName() string { return settingsName(PluginChainName) }
func (p *PluginChain) IsActive() bool       { return len(p.ids) > 0 }

// SetPlugins replaces the action list. Call before the batch starts.
func (p *PluginChain) SetPlugins(ids []string) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	p.ids = append([]string(nil), ids...)
	p.loaded = false
	p.handles = nil
}

// Plugins returns the configured action list.
func (p *PluginChain) Plugins() []string { return append([]string(nil), p.ids...) }

// PreLoad resolves the actions if needed and calls each distinct plugin's
// PreLoad.
func (p *PluginChain) PreLoad() {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if !p.loaded {
		p.resolve()
	}

	seen := map[string]bool{}
	for _, h := range p.handles {
		if h.plugin == nil || seen[h.plugin.Name()] {
			continue
		}
		seen[h.plugin.Name()] = true
		if err := h.plugin.PreLoad(); err != nil {
			log.WithField("plugin", h.plugin.Name()).Warnf("preload: %v", err)
		}
	}
}

// resolve must be called with loadMu held. Actions of the same plugin
// share the first instance the host returned for it.
func (p *PluginChain) resolve() {
	p.handles = make([]pluginHandle, 0, len(p.ids))
	byName := map[string]core.Plugin{}
	for _, id := range p.ids {
		h := pluginHandle{id: id}
		if p.host == nil {
			h.err = ErrNoPluginHost
		} else {
			h.plugin, h.runID, h.err = p.host.Resolve(id)
		}
		if h.plugin != nil {
			if first, ok := byName[h.plugin.Name()]; ok {
				h.plugin = first
			} else {
				byName[h.plugin.Name()] = h.plugin
			}
		}
		p.handles = append(p.handles, h)
	}
	p.loaded = true
}

// Plugin returns the instance serving action id, or nil if id is not in
// the chain or could not be resolved.
func (p *PluginChain) Plugin(id string) core.Plugin {
	for _, h := range p.resolved() {
		if h.id == id {
			return h.plugin
		}
	}
	return nil
}

func (p *PluginChain) resolved() []pluginHandle {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if !p.loaded {
		p.resolve()
	}
	return p.handles
}

func (p *PluginChain) Compute(img core.Image, si core.SaveInfo, lg *core.Log) (core.Image, []core.SideInfo, bool) {
	if !p.IsActive() {
		lg.Addf("%s inactive -> skipping", p.Name())
		return img, nil, true
	}

	var infos []core.SideInfo
	failures := 0

	for _, h := range p.resolved() {
		if h.plugin == nil {
			lg.Addf("%s Cannot apply plugin because it is NULL: %s", p.Name(), h.id)
			if h.err != nil {
				lg.Add(h.err.Error())
			}
			failures++
			continue
		}

		kind := h.plugin.Kind()
		if kind != core.PluginSimple && kind != core.PluginBatch {
			lg.Addf("%s illegal plugin interface: %s", p.Name(), h.id)
			failures++
			continue
		}

		out, data, err := p.run(h, img, si)
		if err != nil || !out.HasContent() {
			lg.Addf("%s Cannot apply %s", p.Name(), h.id)
			if err != nil {
				lg.Add(err.Error())
			}
			failures++
			continue
		}
		img = out

		if kind == core.PluginBatch && data != nil {
			infos = append(infos, core.SideInfo{
				RunID:      h.runID,
				InputPath:  si.InputPath,
				OutputPath: si.OutputPath,
				Data:       data,
			})
		}
	}

	if !img.HasContent() {
		lg.Addf("%s error, could not apply plugins.", p.Name())
		return img, infos, false
	}
	if failures > 0 {
		lg.Addf("%s %d of %d plugin(s) could not be applied.", p.Name(), failures, len(p.ids))
		return img, infos, false
	}

	lg.Addf("%s plugins applied.", p.Name())
	return img, infos, true
}

func (p *PluginChain) run(h pluginHandle, img core.Image, si core.SaveInfo) (core.Image, any, error) {
	if !h.plugin.ConcurrentSafe() {
		p.runMu.Lock()
		defer p.runMu.Unlock()
	}
	return h.plugin.Run(h.runID, img, si)
}

// PostLoad hands every plugin the side info of its own action.
func (p *PluginChain) PostLoad(infos []core.SideInfo) {
	done := map[string]bool{}
	for _, h := range p.resolved() {
		if h.plugin == nil || done[h.id] {
			continue
		}
		done[h.id] = true
		h.plugin.PostLoad(h.runID, core.FilterSideInfo(infos, h.runID))
	}
}

func (p *PluginChain) SaveSettings(s settings.Store) {
	settings.SetList(s, p.SettingsName(), "pluginList", p.ids)
	p.eachConfigurable(func(name string, ps PluginSettings) {
		ps.SaveSettings(s, settings.SubGroup(p.SettingsName(), name))
	})
}

func (p *PluginChain) LoadSettings(s settings.Store) {
	p.SetPlugins(settings.List(s, p.SettingsName(), "pluginList"))
	p.eachConfigurable(func(name string, ps PluginSettings) {
		ps.LoadSettings(s, settings.SubGroup(p.SettingsName(), name))
	})
}

func (p *PluginChain) eachConfigurable(fn func(name string, ps PluginSettings)) {
	seen := map[string]bool{}
	for _, h := range p.resolved() {
		if h.plugin == nil || seen[h.plugin.Name()] {
			continue
		}
		seen[h.plugin.Name()] = true
		if ps, ok := h.plugin.(PluginSettings); ok {
			fn(h.plugin.Name(), ps)
		}
	}
}
