package constant

// AsciiArtLogo is the banner shown above the root command help.
const AsciiArtLogo = `
                 _ _
 _ __ ___   ___| | | _____      __
| '_ ` + "`" + ` _ \ / _ \ | |/ _ \ \ /\ / /
| | | | | |  __/ | | (_) \ V  V /
|_| |_| |_|\___|_|_|\___/ \_/\_/
`
