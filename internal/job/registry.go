package job

// Registry is a name -> Config map, at most one config per name (§4.3).
type Registry struct {
	configs map[string]*Config
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{configs: make(map[string]*Config)}
}

// Get returns the config named name, if any.
func (r *Registry) Get(name string) (*Config, bool) {
	c, ok := r.configs[name]
	return c, ok
}

// All returns every live config, in no particular order.
func (r *Registry) All() []*Config {
	out := make([]*Config, 0, len(r.configs))
	for _, c := range r.configs {
		out = append(out, c)
	}
	return out
}

// Install adds config to the registry. If a config already exists under
// the same name, the outgoing config is freed immediately if it has no
// instances, or marked Deleted with config recorded as its pending
// replacement otherwise (§4.3).
func (r *Registry) Install(config *Config) {
	existing, ok := r.configs[config.Name]
	if ok && len(existing.instances) > 0 {
		existing.Deleted = true
		existing.replacement = config
		return
	}
	r.configs[config.Name] = config
}

// Remove drops name from the registry outright (used when a config is
// deleted with no replacement queued).
func (r *Registry) Remove(name string) {
	delete(r.configs, name)
}

// FindByPID scans every config and instance for one with pid in slot, and
// returns it (§4.3's find_by_pid).
func (r *Registry) FindByPID(pid int) (*Job, Slot, bool) {
	for _, c := range r.configs {
		for _, j := range c.instances {
			for slot := Slot(0); slot < numSlots; slot++ {
				if j.PID[slot] == pid {
					return j, slot, true
				}
			}
		}
	}
	return nil, 0, false
}

// Instance returns the existing instance of config matching name, per
// §4.3's instance() rule: a single-instance config has at most one
// (unnamed) instance; a template-instance config is matched by expanded
// name; an unlimited-instance config never matches an existing instance
// (the caller always creates a new one).
//
// Unlimited-instance configs are those with Instance true and no
// InstanceName template — every start creates a distinct instance. A
// config with Instance true and a non-empty InstanceName template is
// matched by the expanded name.
func (r *Registry) Instance(config *Config, name string) (*Job, bool) {
	if config.Instance && config.InstanceName == "" {
		return nil, false
	}
	if !config.Instance {
		if len(config.instances) == 0 {
			return nil, false
		}
		return config.instances[0], true
	}
	for _, j := range config.instances {
		if j.Name == name {
			return j, true
		}
	}
	return nil, false
}

// OnInstanceDestroyed removes j from its config's instance list and, if
// that emptied the list and the config was deleted, installs the
// config's pending replacement (if any) or drops the config entirely
// (§4.3).
func (r *Registry) OnInstanceDestroyed(j *Job) {
	config := j.Config
	config.removeInstance(j)
	if len(config.instances) > 0 {
		return
	}
	if !config.Deleted {
		return
	}
	if config.replacement != nil {
		r.configs[config.Name] = config.replacement
		return
	}
	if r.configs[config.Name] == config {
		delete(r.configs, config.Name)
	}
}
