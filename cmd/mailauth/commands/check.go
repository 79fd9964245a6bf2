package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mailauth/domain/emailauth"
	"mailauth/pkg/dns"
	mailauthpkg "mailauth/pkg/emailauth"
	"mailauth/pkg/output"
)

// CheckCmd represents the check command.
var CheckCmd = &cobra.Command{
	Use:   "check [domain]",
	Short: "Run an SPF/DKIM/DMARC check for a domain",
	Long: `Check evaluates SPF against a sending IP, inventories DKIM
signatures from an optional raw message, and evaluates DMARC policy and
alignment for a domain.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		domain := args[0]
		senderIP, _ := cmd.Flags().GetString("sender-ip")
		mailFrom, _ := cmd.Flags().GetString("mail-from")
		helo, _ := cmd.Flags().GetString("helo")
		headerFile, _ := cmd.Flags().GetString("header-file")
		timeout, _ := cmd.Flags().GetInt("timeout")
		outputFormat, _ := cmd.Flags().GetString("output")

		fmt.Printf("Checking email authentication for %s...\n", domain)

		var rawMessage []byte
		if headerFile != "" {
			data, err := os.ReadFile(headerFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading header file: %v\n", err)
				os.Exit(1)
			}
			rawMessage = data
		}

		resolvers := []string{"8.8.8.8:53", "1.1.1.1:53"}
		if cfg != nil && len(cfg.DNSResolvers) > 0 {
			resolvers = cfg.DNSResolvers
		}
		dnsClient := dns.NewClient(resolvers)

		orchestrator := mailauthpkg.NewOrchestrator(dnsClient, mailauthpkg.InventoryOnlyVerifier{})

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()

		verdict := orchestrator.Check(ctx, emailauth.CheckRequest{
			Domain:     domain,
			SenderIP:   senderIP,
			MailFrom:   mailFrom,
			Helo:       helo,
			RawMessage: rawMessage,
		})

		if outputFormat == "json" {
			if err := output.PrintResult(verdict, output.FormatJSON); err != nil {
				fmt.Fprintf(os.Stderr, "Error formatting result: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Printf("\nEmail authentication results for %s:\n", domain)

		fmt.Println("\nSPF:")
		fmt.Printf("  Result: %s\n", verdict.SPF.Result)
		fmt.Printf("  Domain: %s\n", verdict.SPF.Domain)
		if verdict.SPF.Explanation != "" {
			fmt.Printf("  Explanation: %s\n", verdict.SPF.Explanation)
		}

		fmt.Println("\nDKIM:")
		fmt.Printf("  Present: %v\n", verdict.DKIM.Verifier.Present)
		fmt.Printf("  Result: %s\n", verdict.DKIM.Verifier.Result)
		if verdict.DKIM.SelectedD != "" {
			fmt.Printf("  Selected d=: %s\n", verdict.DKIM.SelectedD)
		}

		fmt.Println("\nDMARC:")
		fmt.Printf("  Result: %s\n", verdict.DMARC.Result)
		fmt.Printf("  Enforcement: %s\n", verdict.DMARC.Enforcement)
		if verdict.DMARC.Reason != "" {
			fmt.Printf("  Reason: %s\n", verdict.DMARC.Reason)
		}
	},
}

func init() {
	CheckCmd.Flags().StringP("sender-ip", "i", "", "Sending IP address (for SPF evaluation)")
	CheckCmd.Flags().String("mail-from", "", "MAIL FROM address")
	CheckCmd.Flags().String("helo", "", "HELO/EHLO domain")
	CheckCmd.Flags().StringP("header-file", "f", "", "File containing a raw message to inventory DKIM signatures from")
	CheckCmd.Flags().IntP("timeout", "t", 10, "Timeout in seconds for the whole check")
}
