package config

import "github.com/JonMunkholm/namematch/internal/core"

// CoreLayout converts the configured column positions.
func (l LayoutConfig) CoreLayout() core.Layout {
	return core.Layout{
		Staff: core.StaffLayout{Name: l.StaffName},
		Clients: core.ClientLayout{
			Surname:   l.ClientSurname,
			GivenName: l.ClientGivenName,
			Patronym:  l.ClientPatronym,
		},
	}
}

// ServiceOptions maps the configuration onto core.Options.
func (c *Config) ServiceOptions() core.Options {
	return core.Options{
		Layout:        c.Layout.CoreLayout(),
		MaxConcurrent: c.Upload.MaxConcurrent,
		MaxWait:       c.Upload.MaxWaitTime,
		Timeout:       c.Upload.Timeout,
		WorkspaceTTL:  c.Workspace.TTL,
		MaxWorkspaces: c.Workspace.Max,
	}
}
