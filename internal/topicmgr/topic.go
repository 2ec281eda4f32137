package topicmgr

import "maps"

// TopicScope separates transport and presence topics from message destinations.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig describes a topic before it is defined.
type TopicConfig struct {
	Name        string
	Module      string
	Description string
	// Pattern documents the routing key; it defaults to Name.
	Pattern  string
	Example  string
	Metadata map[string]any
}

// Topic is an immutable topic definition. The zero value is not a valid topic.
type Topic struct {
	name        string
	module      string
	description string
	pattern     string
	example     string
	metadata    map[string]any
	scope       TopicScope
}

// DefineFramework defines a topic owned by a core service. Any module in
// config is discarded.
func DefineFramework(config TopicConfig) Topic {
	config.Module = ""
	return define(ScopeFramework, config)
}

// DefineModule defines a topic owned by config.Module.
func DefineModule(config TopicConfig) Topic {
	return define(ScopeModule, config)
}

func define(scope TopicScope, config TopicConfig) Topic {
	if config.Pattern == "" {
		config.Pattern = config.Name
	}
	return Topic{
		name:        config.Name,
		module:      config.Module,
		description: config.Description,
		pattern:     config.Pattern,
		example:     config.Example,
		metadata:    maps.Clone(config.Metadata),
		scope:       scope,
	}
}

func (t Topic) Name() string        { return t.name }
func (t Topic) Module() string      { return t.module }
func (t Topic) Description() string { return t.description }
func (t Topic) Pattern() string     { return t.pattern }
func (t Topic) Example() string     { return t.example }
func (t Topic) Scope() TopicScope   { return t.scope }
func (t Topic) String() string      { return t.name }

// Metadata returns a copy; callers cannot change the definition.
func (t Topic) Metadata() map[string]any {
	if t.metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(t.metadata)
}
