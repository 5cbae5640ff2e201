package samples

// Kind is one of the extracted metrics. Its value doubles as the file-name
// suffix used when samples are saved.
type Kind string

const (
	FPS Kind = "fps"
	GPU Kind = "gpu"
	CPU Kind = "cpu"
	MEM Kind = "mem"
)

// Kinds lists every metric in report order.
var Kinds = []Kind{FPS, GPU, CPU, MEM}

// ParseKind maps a file-name suffix to its metric.
func ParseKind(suffix string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == suffix {
			return k, true
		}
	}
	return "", false
}

// Label is the y-axis label of the metric.
func (k Kind) Label() string {
	switch k {
	case FPS:
		return "FPS"
	case GPU:
		return "GPU"
	case CPU:
		return "CPU"
	case MEM:
		return "MEM"
	}
	return string(k)
}

// Title is the chart title of the metric.
func (k Kind) Title() string {
	switch k {
	case FPS:
		return "FPS Data"
	case GPU:
		return "GPU Data"
	case CPU:
		return "CPU Usage"
	case MEM:
		return "Memory Usage"
	}
	return string(k)
}

// Rounded reports whether values are rounded to two decimals before charting.
func (k Kind) Rounded() bool {
	return k == CPU || k == MEM
}

// Raw is one extracted sample. Time is the duration label as exported
// ("MM:SS.mmm" and similar). Resident is only meaningful for MEM samples.
type Raw struct {
	Time     string
	Value    float64
	Resident float64
	Process  string
}

// Set holds the samples of one extraction pass keyed by metric.
type Set map[Kind][]Raw
