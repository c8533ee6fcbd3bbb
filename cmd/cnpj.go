package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/lepinkainen/cadastro/internal/address"
	"github.com/lepinkainen/cadastro/internal/cache"
	"github.com/lepinkainen/cadastro/internal/cep"
	"github.com/lepinkainen/cadastro/internal/cnpj"
	"github.com/lepinkainen/cadastro/internal/company"
	"github.com/lepinkainen/cadastro/internal/config"
	"github.com/lepinkainen/cadastro/internal/lookup"
)

// CnpjCmd looks up companies in the public CNPJ registries.
type CnpjCmd struct {
	Keys      []string      `arg:"" optional:"" name:"cnpj" help:"Company registration numbers to look up"`
	Input     string        `short:"f" help:"Read CNPJs from a CSV or plain-text file"`
	Driver    string        `help:"Query a single driver instead of racing all of them"`
	Drivers   []string      `help:"Restrict the race to these drivers"`
	Timeout   time.Duration `help:"Overall deadline per lookup (default: lookup.timeout from config)"`
	NoResolve bool          `help:"Skip completing company addresses through postal code lookups"`
	Format    string        `help:"Output format (text, json, yaml)" enum:"text,json,yaml" default:"text"`
}

func (c *CnpjCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *CnpjCmd) run(ctx context.Context, w io.Writer) error {
	keys, err := gatherKeys(c.Keys, c.Input)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return fmt.Errorf("at least one CNPJ is required (pass it as an argument or use --input)")
	}

	store, err := cache.Open(cache.NamespaceCNPJ)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	cfg := cnpj.Config{
		Cache:     store,
		PoolSize:  config.PoolSize,
		Timeout:   lookupTimeout(c.Timeout),
		UserAgent: config.UserAgent,
	}
	if !c.NoResolve {
		cfg.Resolver = postalCodeResolver(cfg.Timeout)
	}

	mgr := newCNPJManager(cfg)
	results := resolveKeys(ctx, mgr, keys, c.Driver, c.Drivers)
	if err := renderLookupResults(w, c.Format, results, renderCompanies); err != nil {
		return err
	}
	return failureSummary(results)
}

// postalCodeResolver completes provider addresses by racing the postal
// code drivers for the company's CEP.
func postalCodeResolver(timeout time.Duration) cnpj.AddressResolver {
	mgr := newCEPManager(cep.Config{
		PoolSize:  config.PoolSize,
		Timeout:   timeout,
		UserAgent: config.UserAgent,
	})
	return func(ctx context.Context, key string) (*address.Address, error) {
		return mgr.FirstResponse(ctx, key)
	}
}

func renderCompanies(w io.Writer, results []lookup.BulkResult[*company.Company]) {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if res.Err != nil {
			fmt.Fprintf(w, "CNPJ %s: %v\n", res.Key, res.Err)
			continue
		}

		comp := res.Value
		header := "CNPJ " + comp.CNPJ
		if comp.VerificationSource != "" {
			header += " (via " + comp.VerificationSource + ")"
		}
		fmt.Fprintln(w, header)

		writeField(w, "Legal name", comp.LegalName)
		writeField(w, "Trade name", comp.TradeName)
		writeField(w, "Status", comp.Status)
		writeField(w, "Registered", comp.RegistrationDate)
		writeField(w, "Activity", comp.PrimaryActivity)
		writeField(w, "Size", comp.CompanySize)
		if comp.ShareCapital > 0 {
			writeField(w, "Capital", strconv.FormatFloat(comp.ShareCapital, 'f', 2, 64))
		}
		writeField(w, "Legal nature", comp.LegalNature)
		writeField(w, "Phone", comp.Phone)
		writeField(w, "Email", comp.Email)
		writeField(w, "Address", comp.FullAddress())
	}
}
