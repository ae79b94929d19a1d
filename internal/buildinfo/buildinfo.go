package buildinfo

const (
	ProjectName = "wordrounds"
	GithubURL   = "https://github.com/bloops-games/wordrounds"
)

var Graffiti = `
 _    _  ___  ____  ____  ____   ___  _   _ _   _ ____  ____
| |  | |/ _ \|  _ \|  _ \|  _ \ / _ \| | | | \ | |  _ \/ ___|
| |/\| | | | | |_) | | | | |_) | | | | | | |  \| | | | \___ \
\  /\  / |_| |  _ <| |_| |  _ <| |_| | |_| | |\  | |_| |___) |
 \/  \/ \___/|_| \_\____/|_| \_\\___/ \___/|_| \_|____/|____/
`

// GreetingCLI is formatted with project name, version and repository url.
var GreetingCLI = "%s %s\nTimed letter and category rounds for a room of friends\n%s\n\n"
