package source

import (
	"fmt"
	"os"
	"strings"

	"auprobe/internal/services"
)

// Protocol names used as race candidates.
const (
	ProtocolFile = "file"
	ProtocolRTMP = "rtmp"
	ProtocolRTSP = "rtsp"
	ProtocolHTTP = "http"
	ProtocolMMSH = "mmsh"
)

// StatFunc reports file information for a local path.
type StatFunc func(name string) (os.FileInfo, error)

// Source is a parsed media location.
type Source struct {
	Raw       string
	Scheme    string
	Remainder string
	Local     bool
}

// Parse classifies raw as a local file or a network location. Local paths
// must name an existing regular file; stat defaults to os.Stat.
func Parse(raw string, stat StatFunc) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, services.Wrap(services.ErrInvalidSource, "parse source", "empty location", nil)
	}
	scheme, remainder, found := strings.Cut(raw, "://")
	if !found {
		if stat == nil {
			stat = os.Stat
		}
		info, err := stat(raw)
		if err != nil {
			return Source{}, services.Wrap(services.ErrInvalidSource, "parse source", fmt.Sprintf("local file %q", raw), err)
		}
		if !info.Mode().IsRegular() {
			return Source{}, services.Wrap(services.ErrInvalidSource, "parse source", fmt.Sprintf("%q is not a regular file", raw), nil)
		}
		return Source{Raw: raw, Scheme: ProtocolFile, Local: true}, nil
	}
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		return Source{}, services.Wrap(services.ErrInvalidSource, "parse source", fmt.Sprintf("missing scheme in %q", raw), nil)
	}
	return Source{Raw: raw, Scheme: scheme, Remainder: remainder}, nil
}

// NormalizeScheme folds tunnelled variants onto their base protocol.
func NormalizeScheme(scheme string) string {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	switch scheme {
	case "rtspt":
		return ProtocolRTSP
	case "rtmpt":
		return ProtocolRTMP
	default:
		return scheme
	}
}

// Protocols returns the candidate protocols for scheme in race order. An
// unsupported scheme yields nil. With force the list is the normalized
// scheme alone.
func Protocols(scheme string, force bool) []string {
	scheme = NormalizeScheme(scheme)
	if scheme == "" {
		return nil
	}
	if force {
		return []string{scheme}
	}
	switch scheme {
	case ProtocolFile:
		return []string{ProtocolFile}
	case ProtocolRTMP:
		return []string{ProtocolRTMP}
	case ProtocolHTTP:
		return []string{ProtocolHTTP, ProtocolMMSH}
	case "mms", ProtocolMMSH, "mmst", ProtocolRTSP:
		return []string{ProtocolRTSP, ProtocolMMSH}
	default:
		return nil
	}
}

// Protocols returns the race candidates for s.
func (s Source) Protocols(force bool) []string {
	if s.Local {
		return []string{ProtocolFile}
	}
	return Protocols(s.Scheme, force)
}

// Endpoint is a protocol-specific invocation target.
type Endpoint struct {
	Protocol     string
	URL          string
	InputOptions []string
}

// Endpoint addresses s over protocol. Input options are copied, never
// modified in place.
func (s Source) Endpoint(protocol string, inputOptions []string) Endpoint {
	protocol = NormalizeScheme(protocol)
	options := make([]string, 0, len(inputOptions)+2)
	if s.Local || protocol == ProtocolFile {
		options = append(options, inputOptions...)
		return Endpoint{Protocol: ProtocolFile, URL: s.Raw, InputOptions: options}
	}

	url := protocol + "://" + s.Remainder
	if !isASCII(url) {
		url = FixURL(url)
	}
	switch protocol {
	case ProtocolRTSP:
		options = append(options, "-rtsp_transport", "tcp")
		options = append(options, inputOptions...)
	case ProtocolRTMP:
		options = append(options, inputOptions...)
		url += " live=1"
	default:
		options = append(options, inputOptions...)
	}
	return Endpoint{Protocol: protocol, URL: url, InputOptions: options}
}
