package identifier

// adjectiveWords and nounWords are the versioned vocabulary for two-word
// identifiers. Entries must be lowercase, unique within their list and must
// not contain the "-" separator. Changing either list changes the capacity
// but never invalidates identifiers that were already issued from a word
// that is still present.
var adjectiveWords = []string{
	// art & aesthetic
	"abstract", "ancient", "angular", "azure", "baroque",
	"blazing", "bold", "brilliant", "carved", "celestial",
	"chromatic", "classical", "cosmic", "crystalline", "curved",
	// desert & landscape
	"barren", "bleached", "desert", "dry", "dusty",
	"endless", "eroded", "faded", "golden", "harsh",
	"heated", "infinite", "jagged", "luminous", "parched",
	"raw", "rugged", "sandy", "scorched", "stark",
	"sunbaked", "weathered", "windcarved",
	// simulation & technology
	"artificial", "binary", "coded", "digital", "electric",
	"electronic", "false", "fractal", "generated", "holographic",
	"hyperreal", "matrix", "networked", "pixelated", "programmed",
	"rendered", "simulated", "synthetic", "temporal", "virtual",
	// organic & anatomical
	"anatomical", "biological", "calcium", "cartilage", "cellular",
	"fibrous", "hollow", "jointed", "marrow", "mineral",
	"organic", "ossified", "skeletal", "spinal", "vital",
	// mystical & cinematic
	"cinematic", "dreamy", "ethereal", "floating", "ghostly",
	"glowing", "haunted", "hidden", "hypnotic", "invisible",
	"levitating", "luminescent", "magical", "mysterious", "mystical",
	"phantom", "radiant", "sacred", "secret", "shadowy",
	"shimmering", "silent", "spectral", "surreal", "transcendent",
	"translucent", "twisted",
}

var nounWords = []string{
	// project
	"marfa", "texas", "bones", "simulation", "okeeffe",
	"deer", "leg", "hip", "skull", "sky",
	"cloud", "blue", "intelligence", "springbok", "trees",
	"matrix", "beaver", "pig", "cow", "bull",
	"steer",
	// bones & anatomy
	"atlas", "axis", "cervix", "clavicle", "coccyx",
	"femur", "fibula", "humerus", "mandible", "maxilla",
	"metacarpal", "metatarsal", "patella", "pelvis", "phalanx",
	"radius", "rib", "sacrum", "scapula", "sternum",
	"talus", "tibia", "ulna", "vertebra",
	// southwest animals
	"antelope", "armadillo", "bobcat", "buffalo", "coyote",
	"elk", "hawk", "horse", "jackrabbit", "javelina",
	"lizard", "longhorn", "mustang", "owl", "prairiedog",
	"pronghorn", "quail", "rabbit", "ram", "rattlesnake",
	"roadrunner", "sheep", "turtle",
	// landscape & geography
	"adobe", "arroyo", "badlands", "bluff", "butte",
	"canyon", "cave", "cliff", "creek", "dune",
	"gorge", "gulch", "mesa", "mound", "peak",
	"plain", "plateau", "prairie", "ravine", "ridge",
	"river", "rock", "sand", "stone", "valley",
	"wash",
	// technology & simulation
	"algorithm", "avatar", "binary", "circuit", "code",
	"cursor", "data", "file", "firewall", "firmware",
	"gateway", "grid", "interface", "kernel", "network",
	"node", "pixel", "portal", "program", "protocol",
	"server", "signal", "system",
	// art & cinema
	"brush", "canvas", "cinema", "color", "composition",
	"dawn", "dusk", "easel", "film", "frame",
	"gallery", "image", "lens", "light", "medium",
	"monolith", "museum", "narrative", "painting", "palette",
	"perspective", "pigment", "prism", "projection", "scene",
	"screen", "sculpture", "studio", "texture", "vision",
	// abstract concepts
	"abyss", "artifact", "chamber", "chimera", "echo",
	"essence", "fragment", "ghost", "glimpse", "horizon",
	"icon", "illusion", "infinity", "legend", "memory",
	"metaphor", "mirage", "moment", "monument", "myth",
	"origin", "phantom", "reality", "relic", "replica",
	"ritual", "shadow", "spirit", "symbol", "threshold",
	"truth", "void", "baudrillard",
}

// Adjectives returns a copy of the adjective vocabulary.
func Adjectives() []string {
	return append([]string(nil), adjectiveWords...)
}

// Nouns returns a copy of the noun vocabulary.
func Nouns() []string {
	return append([]string(nil), nounWords...)
}
