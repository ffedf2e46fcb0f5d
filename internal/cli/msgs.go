package cli

// Command descriptions
const (
	MsgRootShort = "Starter-pack manager for AI assistant project setups"
	MsgRootLong  = `zcc installs starter packs into a project: bundles of modes, workflows,
agents and hooks published by local directories, HTTP servers, GitHub
repositories or S3 buckets. Installed files are tracked so that uninstalling
a pack removes exactly what it added and keeps what you changed.`

	MsgPacksShort      = "Discover, install and remove starter packs"
	MsgPacksListShort  = "List packs available from every source"
	MsgPacksSearch     = "Search available packs"
	MsgPacksInfo       = "Show a pack's manifest and install state"
	MsgPacksInstall    = "Install a pack and its dependencies"
	MsgPacksUninstall  = "Uninstall a pack, keeping files you modified"
	MsgPacksInstalled  = "List packs installed in this project"
	MsgPacksValidate   = "Check that a pack's dependencies resolve"
	MsgPacksRecommend  = "List packs compatible with a project type"
	MsgPacksStats      = "Summarise available and installed packs"
	MsgPacksServe      = "Serve a pack directory over HTTP"
	MsgComponentsShort = "Inspect components across project, global and builtin scopes"
	MsgComponentsList  = "List effective components"
	MsgComponentsFind  = "Find components by name"
	MsgComponentsShow  = "Show a component"
	MsgComponentsConf  = "List components shadowed by a higher scope"
	MsgFilesShort      = "Inspect files installed by packs"
	MsgFilesStatus     = "List installed files and their owners"
	MsgFilesVerify     = "Report installed files changed since install"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
)

// Flag descriptions
const (
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagProject = "Project directory (default: $ZCC_PROJECT_ROOT or the current directory)"
	MsgFlagFormat  = "Output format: auto, term, text or json"
	MsgFlagNoColor = "Disable colored output"
	MsgFlagForce   = "Overwrite files owned by other packs"
	MsgFlagSource  = "Prefer this source when loading the pack"
	MsgFlagYes     = "Do not ask for confirmation"
)

// Output messages
const (
	MsgNoPacks           = "No packs found."
	MsgNoInstalled       = "No packs installed."
	MsgNoComponents      = "No components found."
	MsgNoConflicts       = "No shadowed components."
	MsgNoFiles           = "No files installed."
	MsgNoModifications   = "All installed files match what was installed."
	MsgDidYouMean        = "Did you mean: %s?"
	MsgPackValid         = "Pack %s and its dependencies resolve."
	MsgInstallFailed     = "installing %s failed"
	MsgUninstallDeclined = "Uninstall cancelled."
	MsgConfirmUninstall  = "%s depend on %s. Uninstall anyway?"
	MsgSelectPack        = "Pack to install"
	MsgServing           = "Serving %s on %s (Ctrl-C to stop)"
)
