// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ManifestParseErrorId Id = iota + 1
	ManifestWriteFailedId
	ToolNotFoundId
	ToolFailedId
	ConfigLoadFailedId
	WorkspaceBusyId
	WatchLimitReachedId
	PermissionDeniedId
)

type (
	// Id identifies a catalog entry.
	Id int

	// MarkdownMsg is the Markdown body of an Issue.
	MarkdownMsg string

	// Issue is a catalog entry with Markdown guidance.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

var (
	render = glamour.Render

	manifestParseErrorIssue = &Issue{
		id: ManifestParseErrorId,
		mdMsg: `
# A resource manifest could not be parsed

The manifest next to the moved file is not a YAML mapping, so it was left
untouched. Manifests in other directories were not affected.

## Things you can try:
- Fix the YAML syntax in the manifest
- Rename the file back and again, or run:
~~~
$ cxxmod rename <old-path> <new-path>
~~~`,
	}

	manifestWriteFailedIssue = &Issue{
		id: ManifestWriteFailedId,
		mdMsg: `
# A resource manifest could not be written

When a move crosses directories the source manifest is written first. If
the destination write failed, the moved entries are missing from both files.

## Things you can try:
- Check the directory permissions
- Add the entries shown in the log to the destination manifest by hand`,
	}

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# The build tool could not be started

The command configured in ` + "`tool.command`" + ` was not found or is not executable.

## Things you can try:
- Check the value with:
~~~
$ cxxmod config show
~~~
- Set ` + "`CXXMOD_TOOL_COMMAND`" + ` or edit ` + "`cxxmod.cue`" + ``,
	}

	toolFailedIssue = &Issue{
		id: ToolFailedId,
		mdMsg: `
# The build tool reported a failure

The tool exited with a non-zero status. Its output is shown above, with
markers where it switched between standard output and standard error.

## Things you can try:
- Re-run the reported command by hand to inspect the problem
- Run with ` + "`--verbose`" + ` to see every queued command`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

The configuration file is not valid CUE or does not match the schema.

## Things you can try:
- Compare your file with the defaults:
~~~
$ cxxmod config show
~~~
- Remove unknown keys; the schema is closed`,
	}

	workspaceBusyIssue = &Issue{
		id: WorkspaceBusyId,
		mdMsg: `
# The workspace is already being watched

Another ` + "`cxxmod watch`" + ` process holds the workspace lock file
` + "`.cxxmod.lock`" + `. Running two watchers would submit every command twice.

## Things you can try:
- Stop the other watcher
- If no watcher is running, the lock is released automatically when its process exits`,
	}

	watchLimitReachedIssue = &Issue{
		id: WatchLimitReachedId,
		mdMsg: `
# The file watch limit was reached

The operating system refused to watch more directories.

## Things you can try:
- Raise the limit, for example on Linux:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~
- Add build output directories to ` + "`watch.ignore`" + ``,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied

cxxmod could not read or write a file in the workspace.

## Things you can try:
- Check the ownership and mode of the file and its directory`,
	}

	issues = map[Id]*Issue{
		manifestParseErrorIssue.Id():  manifestParseErrorIssue,
		manifestWriteFailedIssue.Id(): manifestWriteFailedIssue,
		toolNotFoundIssue.Id():        toolNotFoundIssue,
		toolFailedIssue.Id():          toolFailedIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		workspaceBusyIssue.Id():       workspaceBusyIssue,
		watchLimitReachedIssue.Id():   watchLimitReachedIssue,
		permissionDeniedIssue.Id():    permissionDeniedIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Title returns the first heading of the message.
func (i *Issue) Title() string {
	for line := range strings.Lines(string(i.mdMsg)) {
		if title, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			return title
		}
	}
	return ""
}

// Render renders the message for the terminal using a glamour style name
// ("dark", "light", "notty", ...) or style file path.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(string(i.mdMsg), stylePath)
}

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
