package profile

// Profile pairs a hound instance name with its flag set.
type Profile struct {
	Name  string
	Flags Flags
}

// Profiles returns every hound instance in generation order.
func Profiles() []Profile {
	return []Profile{
		// search carries everything worth indexing. Left out: dead
		// codebases, bundles already covered via core/exts/skins, and the
		// vendored upstream libraries.
		{Name: "search", Flags: Flags{
			Core:       true,
			Exts:       true,
			Skins:      true,
			OOUI:       true,
			Operations: true,
			Puppet:     true,
			TWN:        true,
			Pywikibot:  true,
			Services:   true,
			Libs:       true,
			Analytics:  true,
			WMCS:       true,
			Schemas:    true,
		}},
		{Name: "core", Flags: Flags{Core: true}},
		{Name: "pywikibot", Flags: Flags{Pywikibot: true}},
		{Name: "extensions", Flags: Flags{Exts: true}},
		{Name: "skins", Flags: Flags{Skins: true}},
		{Name: "things", Flags: Flags{Exts: true, Skins: true}},
		{Name: "ooui", Flags: Flags{OOUI: true}},
		{Name: "operations", Flags: Flags{Operations: true, Puppet: true}},
		{Name: "armchairgm", Flags: Flags{ArmchairGM: true}},
		{Name: "milkshake", Flags: Flags{Milkshake: true}},
		{Name: "bundled", Flags: Flags{Core: true, Bundled: true, Vendor: true}},
		{Name: "deployed", Flags: Flags{Core: true, Wikimedia: true, Vendor: true, Services: true}},
		{Name: "services", Flags: Flags{Services: true}},
		{Name: "libraries", Flags: Flags{OOUI: true, Milkshake: true, Libs: true}},
		{Name: "analytics", Flags: Flags{Analytics: true}},
		{Name: "wmcs", Flags: Flags{WMCS: true}},
		{Name: "puppet", Flags: Flags{Puppet: true}},
		{Name: "shouthow", Flags: Flags{ShoutHow: true}},
	}
}

// Find returns the profile with the given name.
func Find(name string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Names lists the profile names in generation order.
func Names() []string {
	profiles := Profiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}
