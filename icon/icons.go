package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Play
	Pause
	Loop
	Volume
	Speed
)

var icons = map[Icon]*iconDef{
	Success:  {emoji: "✅", nerd: "", plain: "✓", kaomoji: "(^_^)", squares: "■"},
	Fail:     {emoji: "❌", nerd: "", plain: "✗", kaomoji: "(x_x)", squares: "□"},
	Progress: {emoji: "⏳", nerd: "", plain: "…", kaomoji: "(._.)", squares: "▣"},
	Play:     {emoji: "▶️", nerd: "", plain: ">", kaomoji: "(~‾▿‾)~", squares: "▶"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(-_-)", squares: "▮▮"},
	Loop:     {emoji: "🔁", nerd: "", plain: "@", kaomoji: "(@_@)", squares: "⟲"},
	Volume:   {emoji: "🔊", nerd: "", plain: "vol", kaomoji: "(°o°)", squares: "◧"},
	Speed:    {emoji: "⏩", nerd: "", plain: "x", kaomoji: "(>>_>>)", squares: "»"},
}
