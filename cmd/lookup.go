package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/equitle/enrichment-cli/internal/model"
	"github.com/equitle/enrichment-cli/internal/provider"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a single company or contact",
	Long:  "Calls the enrichment provider directly and prints the result as JSON.",
}

var lookupCompanyCmd = &cobra.Command{
	Use:   "company",
	Short: "Look up company data by domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		domain, _ := cmd.Flags().GetString("domain")

		env, err := initProvider()
		if err != nil {
			return err
		}

		res, err := env.Provider.EnrichCompany(cmd.Context(), strings.TrimSpace(domain))
		if err != nil {
			return eris.Wrap(err, "lookup company")
		}
		return printJSON(res)
	},
}

var lookupContactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Look up a person by name at a company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		company, _ := cmd.Flags().GetString("company")
		domain, _ := cmd.Flags().GetString("domain")

		env, err := initProvider()
		if err != nil {
			return err
		}

		res, err := env.Provider.EnrichContact(cmd.Context(),
			strings.TrimSpace(name), strings.TrimSpace(company), strings.TrimSpace(domain))
		if err != nil {
			return eris.Wrap(err, "lookup contact")
		}
		return printJSON(res)
	},
}

var lookupRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Run one company through the full enrichment of a spreadsheet row",
	RunE: func(cmd *cobra.Command, _ []string) error {
		company, _ := cmd.Flags().GetString("company")
		domain, _ := cmd.Flags().GetString("domain")
		website, _ := cmd.Flags().GetString("website")

		rec := model.InputRecord{
			Row:     1,
			Company: strings.TrimSpace(company),
			Domain:  strings.TrimSpace(domain),
			Website: strings.TrimSpace(website),
		}
		if !rec.HasIdentity() {
			return eris.New("lookup record: one of --company, --domain or --website is required")
		}

		env, err := initProvider()
		if err != nil {
			return err
		}
		return printJSON(newEnricher(env, nil).EnrichRecord(cmd.Context(), rec))
	},
}

var lookupKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Check that the configured provider API key is accepted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initProvider()
		if err != nil {
			return err
		}
		check, err := validateKey(cmd, env.Provider)
		if err != nil {
			return err
		}
		if err := printJSON(check); err != nil {
			return err
		}
		if !check.Valid {
			return eris.Errorf("lookup key: %s", check.Message)
		}
		return nil
	},
}

func validateKey(cmd *cobra.Command, p provider.Provider) (model.KeyCheck, error) {
	v, ok := p.(provider.KeyValidator)
	if !ok {
		return model.KeyCheck{}, eris.Errorf("lookup key: provider %s does not support key validation", p.Name())
	}
	check, err := v.ValidateKey(cmd.Context())
	if err != nil {
		return check, eris.Wrap(err, "lookup key")
	}
	return check, nil
}

func init() {
	lookupCompanyCmd.Flags().String("domain", "", "company domain, e.g. shopify.com")
	_ = lookupCompanyCmd.MarkFlagRequired("domain")

	lookupContactCmd.Flags().String("name", "", "person's full name")
	lookupContactCmd.Flags().String("company", "", "company the person works at")
	lookupContactCmd.Flags().String("domain", "", "company domain")
	_ = lookupContactCmd.MarkFlagRequired("name")
	_ = lookupContactCmd.MarkFlagRequired("company")

	lookupRecordCmd.Flags().String("company", "", "company name")
	lookupRecordCmd.Flags().String("domain", "", "company domain")
	lookupRecordCmd.Flags().String("website", "", "company website")

	lookupCmd.AddCommand(lookupCompanyCmd)
	lookupCmd.AddCommand(lookupContactCmd)
	lookupCmd.AddCommand(lookupRecordCmd)
	lookupCmd.AddCommand(lookupKeyCmd)
	rootCmd.AddCommand(lookupCmd)
}
