package profile

// Flags selects which repository groups a profile includes. Field order
// mirrors the block order in Rules.
type Flags struct {
	Core       bool
	Exts       bool
	Skins      bool
	OOUI       bool
	Operations bool
	ArmchairGM bool
	TWN        bool
	Milkshake  bool
	Bundled    bool
	Vendor     bool
	Wikimedia  bool
	Pywikibot  bool
	Services   bool
	Libs       bool
	Analytics  bool
	Puppet     bool
	ShoutHow   bool
	Schemas    bool
	WMCS       bool
}

// Rules expands the flag set into its ordered rule list. Later rules win
// when two produce the same display name, so the block order is part of the
// contract.
func (f Flags) Rules() []Rule {
	var rules []Rule

	if f.Core {
		rules = append(rules, static("MediaWiki core", gerrit("mediawiki/core")))
	}

	if f.Pywikibot {
		rules = append(rules, static("Pywikibot", gerrit("pywikibot/core")))
	}

	if f.OOUI {
		rules = append(rules, static("OOUI", gerrit("oojs/ui")))
	}

	if f.Exts {
		rules = append(rules,
			ExtDistList{Kind: ExtDistExtensions},
			static("VisualEditor core", gerrit("VisualEditor/VisualEditor")),
			ManifestList{URL: NonWMFExtensionsManifest},
		)
	}

	if f.Skins {
		rules = append(rules,
			ExtDistList{Kind: ExtDistSkins},
			ManifestList{URL: NonWMFSkinsManifest},
		)
	}

	if f.Puppet {
		rules = append(rules,
			static("Wikimedia Puppet", gerrit("operations/puppet")),
			static("labs/private", gerrit("labs/private")),
		)
	}

	if f.Puppet || f.WMCS {
		rules = append(rules,
			static("cloud/instance-puppet", gerrit("cloud/instance-puppet")),
			// instance-puppet for the codfw1dev testing deployment
			static("cloud/instance-puppet-dev", gerrit("cloud/instance-puppet-dev")),
		)
	}

	if f.Operations {
		rules = append(rules,
			static("Wikimedia DNS", gerrit("operations/dns")),
			// The netbox DNS export only lives in Phabricator.
			static("netbox DNS", phab("netbox-exported-dns")),
			static("Wikimedia MediaWiki config", gerrit("operations/mediawiki-config")),
			static("scap", gerrit("mediawiki/tools/scap")),
			static("Wikimedia continuous integration config", gerrit("integration/config")),
			static("Blubber", gerrit("blubber")),
			static("pipelinelib", gerrit("integration/pipelinelib")),
			static("MediaWiki Vagrant", gerrit("mediawiki/vagrant")),
			static("operations/cookbooks", gerrit("operations/cookbooks")),
			static("operations/deployment-charts", gerrit("operations/deployment-charts")),
			static("operations/software", gerrit("operations/software")),
			static("operations/software/conftool", gerrit("operations/software/conftool")),
			static("operations/software/spicerack", gerrit("operations/software/spicerack")),
			static("operations/software/purged", gerrit("operations/software/purged")),
			static("performance/arc-lamp", gerrit("performance/arc-lamp")),
			static("performance/asoranking", gerrit("performance/asoranking")),
			static("performance/bttostatsv", gerrit("performance/bttostatsv")),
			static("performance/coal", gerrit("performance/coal")),
			static("performance/docroot", gerrit("performance/docroot")),
			static("performance/fresnel", gerrit("performance/fresnel")),
			static("performance/mobile-synthetic-monitoring-tests", gerrit("performance/mobile-synthetic-monitoring-tests")),
			static("performance/navtiming", gerrit("performance/navtiming")),
			static("performance/synthetic-monitoring-tests", gerrit("performance/synthetic-monitoring-tests")),
			static("performance/WikimediaDebug", gerrit("performance/WikimediaDebug")),
		)
	}

	if f.ArmchairGM {
		rules = append(rules, static("ArmchairGM", github("mary-kate/ArmchairGM")))
	}

	if f.TWN {
		rules = append(rules, static("translatewiki.net", gerrit("translatewiki")))
	}

	if f.Milkshake {
		for _, name := range []string{"jquery.uls", "jquery.ime", "jquery.webfonts", "jquery.i18n", "language-data"} {
			rules = append(rules, static(name, github("wikimedia/"+name)))
		}
	}

	if f.Bundled {
		rules = append(rules, BundleList{Bundle: BundleBase})
	}

	if f.Wikimedia {
		rules = append(rules,
			BundleList{Bundle: BundleWMFCore},
			static("Wikimedia MediaWiki config", gerrit("operations/mediawiki-config")),
			static("WikimediaDebug", gerrit("performance/WikimediaDebug")),
		)
	}

	if f.Vendor {
		rules = append(rules, static("mediawiki/vendor", gerrit("mediawiki/vendor")))
	}

	if f.Services {
		rules = append(rules,
			GerritList{Prefix: "mediawiki/services/"},
			static("mwaddlink", gerrit("research/mwaddlink")),
			static("Wikidata Query GUI", gerrit("wikidata/query/gui")),
			static("Wikidata Query RDF", gerrit("wikidata/query/rdf")),
		)
	}

	if f.Libs {
		rules = append(rules,
			GerritList{Prefix: "mediawiki/libs/"},
			static("AhoCorasick", gerrit("AhoCorasick")),
			static("cdb", gerrit("cdb")),
			static("CLDRPluralRuleParser", gerrit("CLDRPluralRuleParser")),
			static("HtmlFormatter", gerrit("HtmlFormatter")),
			static("IPSet", gerrit("IPSet")),
			static("RelPath", gerrit("RelPath")),
			static("RunningStat", gerrit("RunningStat")),
			static("WrappedString", gerrit("WrappedString")),
			static("MediaWiki CodeSniffer", gerrit("mediawiki/tools/codesniffer")),
			static("MediaWiki Phan", gerrit("mediawiki/tools/phan")),
			static("SecurityCheckPlugin", gerrit("mediawiki/tools/phan/SecurityCheckPlugin")),
			static("Purtle", gerrit("purtle")),
			static("wvui", gerrit("wvui")),
			static("codex", gerrit("design/codex")),
			// Wikibase libraries
			static("WikibaseDataModel", github("wmde/WikibaseDataModel")),
			static("WikibaseDataModelSerialization", github("wmde/WikibaseDataModelSerialization")),
			static("WikibaseDataModelServices", github("wmde/WikibaseDataModelServices")),
			static("WikibaseInternalSerialization", github("wmde/WikibaseInternalSerialization")),
			static("wikibase-termbox", gerrit("wikibase/termbox")),
			static("wikibase-vuejs-components", gerrit("wikibase/vuejs-components")),
			static("WikibaseDataValuesValueView", gerrit("data-values/value-view")),
			static("WikibaseJavascriptAPI", gerrit("wikibase/javascript-api")),
			static("WikibaseDataValuesJavaScript", github("wmde/DataValuesJavaScript")),
			static("WikibaseSerializationJavaScript", github("wmde/WikibaseSerializationJavaScript")),
			static("WikibaseDataModelJavaScript", github("wmde/WikibaseDataModelJavaScript")),
		)
	}

	if f.Analytics {
		rules = append(rules, GerritList{Prefix: "analytics/"})
	}

	if f.Schemas {
		rules = append(rules, GerritList{Prefix: "schemas/event/"})
	}

	if f.ShoutHow {
		rules = append(rules, static("ShoutHow", githost("git.legoktm.com", "ashley/ShoutHow")))
	}

	if f.WMCS {
		rules = append(rules,
			// Toolforge infrastructure
			GerritList{Prefix: "operations/software/tools-"},
			GerritList{Prefix: "cloud/toolforge/"},
			// Custom horizon panels, but not upstream code
			GerritList{Prefix: "openstack/horizon/wmf-"},
		)
	}

	return rules
}
