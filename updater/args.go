package updater

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

// Args are the four positional arguments the updater is started with:
//
//	<updatee executable> <package content dir> <restart:true|false> <base64 routed args>
type Args struct {
	UpdateePath string
	ContentDir  string
	Restart     bool
	RoutedArgs  []string
}

// ParseArgs decodes the positional command line of the updater.
func ParseArgs(argv []string) (Args, error) {
	if len(argv) != 4 {
		return Args{}, fmt.Errorf("expected 4 arguments, got %d", len(argv))
	}

	restart, err := strconv.ParseBool(argv[2])
	if err != nil {
		return Args{}, fmt.Errorf("invalid restart flag %q: %w", argv[2], err)
	}

	routed, err := DecodeRoutedArgs(argv[3])
	if err != nil {
		return Args{}, err
	}

	return Args{
		UpdateePath: argv[0],
		ContentDir:  argv[1],
		Restart:     restart,
		RoutedArgs:  routed,
	}, nil
}

// CommandLine encodes a into the positional form accepted by ParseArgs.
func (a Args) CommandLine() []string {
	return []string{
		a.UpdateePath,
		a.ContentDir,
		strconv.FormatBool(a.Restart),
		EncodeRoutedArgs(a.RoutedArgs),
	}
}

// EncodeRoutedArgs packs the host arguments as base64 of a JSON string array
// so they survive any quoting applied while spawning the updater.
func EncodeRoutedArgs(args []string) string {
	if args == nil {
		args = []string{}
	}
	data, _ := json.Marshal(args)
	return base64.StdEncoding.EncodeToString(data)
}

func DecodeRoutedArgs(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode routed arguments: %w", err)
	}

	var args []string
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("decode routed arguments: %w", err)
	}
	return args, nil
}
