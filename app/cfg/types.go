package cfg

type Cfg struct {
	// Input configuration
	StoreDir          string
	AgenciesFile      string
	JurisdictionsFile string

	// Output configuration
	OutDir   string
	WriteCSV bool

	// Processing configuration
	WorkerCount int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
