package root

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cobra"

	"github.com/oasbridge/bridge/pkg/compiler"
	"github.com/oasbridge/bridge/pkg/host"
	"github.com/oasbridge/bridge/pkg/specdoc"
	"github.com/oasbridge/bridge/pkg/synth"
)

// newCatalogueCmd prints each configured service's operations as
// serializationInfo (§5.4's "Metadata" contract) without starting any
// transport — the consumer this metadata exists for is an external code
// emitter or offline tool catalogue.
func newCatalogueCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Print the compiled tool catalogue as JSON, without serving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := host.LoadConfig(configPath)
			if err != nil {
				return err
			}

			var catalogue []synth.SerializationInfo
			for _, svc := range cfg.Services {
				source := svc.SpecFile
				if source == "" {
					source = svc.SpecURL
				}

				doc, err := specdoc.Load(cmd.Context(), source)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping service %q: %v\n", svc.Name, err)
					continue
				}

				ops, err := compileForCatalogue(svc, doc)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping service %q: %v\n", svc.Name, err)
					continue
				}

				for _, op := range ops {
					catalogue = append(catalogue, synth.BuildSerializationInfo(op))
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalogue)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to the services.json/yaml configuration")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func compileForCatalogue(svc host.ServiceEntry, doc *openapi3.T) ([]*compiler.Operation, error) {
	return compiler.Compile(svc.Name, doc, svc.Filters.ToFilters(), compiler.AuthSettings{}, svc.BaseURL)
}
