package cmd

import (
	"io"
	"os"

	"github.com/lepinkainen/cadastro/internal/cep"
	"github.com/lepinkainen/cadastro/internal/cmdutil"
	"github.com/lepinkainen/cadastro/internal/cnpj"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// DriversCmd lists every registered driver for both lookup kinds.
type DriversCmd struct {
	Format string `help:"Output format (text, json, yaml)" enum:"text,json,yaml" default:"text"`
}

type driverInfo struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Country     string `json:"country,omitempty"`
	Default     bool   `json:"default"`
}

func (d *DriversCmd) Run() error {
	return d.run(os.Stdout)
}

func (d *DriversCmd) run(w io.Writer) error {
	infos := driverCatalog()

	if d.Format == cmdutil.FormatText || d.Format == "" {
		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			name := info.Name
			if info.Default {
				// The default driver answers single-driver lookups.
				name += " *"
			}
			rows = append(rows, []string{info.Kind, name, info.Description, info.Version, info.Country})
		}
		return cmdutil.Table(w, []string{"KIND", "DRIVER", "DESCRIPTION", "VERSION", "COUNTRY"}, rows)
	}
	return cmdutil.Render(w, d.Format, infos)
}

func driverCatalog() []driverInfo {
	cepMgr := newCEPManager(cep.Config{})
	cnpjMgr := newCNPJManager(cnpj.Config{})

	infos := describeDrivers("cep", cepMgr)
	return append(infos, describeDrivers("cnpj", cnpjMgr)...)
}

func describeDrivers[T any](kind string, mgr *lookup.Manager[T]) []driverInfo {
	defaultName, _ := mgr.DefaultDriver()

	names := mgr.Drivers()
	infos := make([]driverInfo, 0, len(names))
	for _, name := range names {
		info := driverInfo{Kind: kind, Name: name, Default: name == defaultName}
		if metadata, err := mgr.DriverMetadata(name); err == nil {
			info.Description = metadata["description"]
			info.Version = metadata["version"]
			info.Country = metadata["country"]
		}
		infos = append(infos, info)
	}
	return infos
}
