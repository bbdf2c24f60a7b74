// Command fluxctl is the operator CLI for the settlement backend.
//
//	fluxctl [-backend URL] stats
//	fluxctl [-backend URL] payouts
//	fluxctl [-backend URL] merchants [-filter all|has-pending|paid|active]
//	fluxctl [-backend URL] transactions -merchant ID [-filter all|paid|unpaid|pending]
//	fluxctl [-backend URL] settle -merchant ID -utr REF [-yes]
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fluxadmin/internal/admin"
	"fluxadmin/internal/cli"
	"fluxadmin/internal/config"
	"fluxadmin/internal/core"
	applog "fluxadmin/internal/log"
	"fluxadmin/internal/services"
)

const usage = `usage: fluxctl [-backend URL] <command> [flags]

commands:
  stats                                   global financial summary
  payouts                                 merchants with a pending payout
  merchants [-filter F]                   merchant directory (all, has-pending, paid, active)
  transactions -merchant ID [-filter F]   merchant transactions (all, paid, unpaid, pending)
  settle -merchant ID -utr REF [-yes]     mark the merchant's pending payout as paid
`

// serviceFactory builds the data-access layer for a backend URL.
type serviceFactory func(backendURL string) *services.Settlements

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, os.Stderr).WithComponent(applog.ComponentCLI)

	factory := func(backendURL string) *services.Settlements {
		client := admin.NewClient(backendURL, cfg.BackendTimeout, admin.WithLogger(logger))
		return services.NewSettlements(client, services.Options{Logger: logger})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], cfg.BackendURL, factory, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, defaultBackend string, factory serviceFactory, stdin io.Reader, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("fluxctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	backendURL := global.String("backend", defaultBackend, "backend base URL")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	c := &command{
		svc:    factory(strings.TrimRight(*backendURL, "/")),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
	defer c.svc.Close()

	name, rest := global.Arg(0), global.Args()[1:]
	var err error
	switch name {
	case "stats":
		err = c.stats(ctx)
	case "payouts":
		err = c.payouts(ctx)
	case "merchants":
		err = c.merchants(ctx, rest)
	case "transactions":
		err = c.transactions(ctx, rest)
	case "settle":
		err = c.settle(ctx, rest)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		global.Usage()
		return 2
	}

	var uerr usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &uerr):
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

type command struct {
	svc    *services.Settlements
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *command) print(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.stdout, string(out))
	return err
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *command) stats(ctx context.Context) error {
	st, err := c.svc.Stats(ctx)
	if err != nil {
		return err
	}
	return c.print(st)
}

func (c *command) payouts(ctx context.Context) error {
	p, err := c.svc.PendingPayouts(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		p = []core.PendingPayout{}
	}
	return c.print(p)
}

type merchantsOutput struct {
	Filter    core.MerchantFilter         `json:"filter"`
	Total     int                         `json:"total"`
	Counts    map[core.MerchantFilter]int `json:"counts"`
	Merchants []core.Merchant             `json:"merchants"`
}

func (c *command) merchants(ctx context.Context, args []string) error {
	fs := c.flags("merchants")
	filterFlag := fs.String("filter", "all", "all, has-pending, paid or active")
	if err := fs.Parse(args); err != nil {
		return usageError{err.Error()}
	}
	filter, err := core.ParseMerchantFilter(*filterFlag)
	if err != nil {
		return usageError{err.Error()}
	}

	list, err := c.svc.MerchantList(ctx, filter)
	if err != nil {
		return err
	}
	return c.print(merchantsOutput{
		Filter:    list.Filter,
		Total:     list.Total,
		Counts:    list.Counts,
		Merchants: list.Merchants,
	})
}

type bucketOutput struct {
	Count int        `json:"count"`
	Gross core.Money `json:"gross"`
	Net   core.Money `json:"net"`
}

type transactionsOutput struct {
	MerchantID   string                         `json:"merchant_id"`
	MerchantName string                         `json:"merchant_name"`
	Filter       core.TransactionFilter         `json:"filter"`
	Counts       map[core.TransactionFilter]int `json:"counts"`
	Buckets      map[core.Bucket]bucketOutput   `json:"buckets"`
	Mismatches   []string                       `json:"mismatches,omitempty"`
	Inconsistent []string                       `json:"paid_before_settled,omitempty"`
	Transactions []core.Transaction             `json:"transactions"`
}

func (c *command) transactions(ctx context.Context, args []string) error {
	fs := c.flags("transactions")
	merchantID := fs.String("merchant", "", "merchant id (required)")
	filterFlag := fs.String("filter", "all", "all, paid, unpaid or pending")
	if err := fs.Parse(args); err != nil {
		return usageError{err.Error()}
	}
	if *merchantID == "" {
		return usageError{"-merchant is required"}
	}
	filter, err := core.ParseTransactionFilter(*filterFlag)
	if err != nil {
		return usageError{err.Error()}
	}

	v, err := c.svc.MerchantView(ctx, *merchantID, filter)
	if err != nil {
		return err
	}
	out := transactionsOutput{
		MerchantID:   v.Merchant.MerchantID,
		MerchantName: v.Merchant.MerchantName,
		Filter:       v.Filter,
		Counts:       v.Counts,
		Buckets:      make(map[core.Bucket]bucketOutput, len(v.Rollup.Buckets)),
		Mismatches:   v.Mismatches,
		Inconsistent: v.Inconsistent,
		Transactions: v.Transactions,
	}
	for b, t := range v.Rollup.Buckets {
		out.Buckets[b] = bucketOutput{Count: t.Count, Gross: t.Gross, Net: t.Net}
	}
	return c.print(out)
}

// settle marks the merchant's pending payout as paid after an explicit confirmation.
// The reference goes to the service as typed; it is sanitized there once.
func (c *command) settle(ctx context.Context, args []string) error {
	fs := c.flags("settle")
	merchantID := fs.String("merchant", "", "merchant id (required)")
	utr := fs.String("utr", "", "UTR / bank payment reference (required)")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return usageError{err.Error()}
	}
	if *merchantID == "" {
		return usageError{"-merchant is required"}
	}
	reference := services.SanitizeReference(*utr)
	if reference == "" {
		return usageError{"please enter a UTR/Reference with -utr"}
	}

	preview, err := c.svc.PayoutPreview(ctx, *merchantID)
	if err != nil {
		return err
	}
	payout := preview.Payout

	fmt.Fprintf(c.stderr, "Merchant:     %s (%s)\n", payout.MerchantName, payout.MerchantID)
	fmt.Fprintf(c.stderr, "Amount:       %s\n", payout.TotalPayable)
	fmt.Fprintf(c.stderr, "Transactions: %d\n", payout.TransactionCount)
	for _, it := range preview.Items {
		if it.Listed {
			fmt.Fprintf(c.stderr, "  %s  %s  %s\n", it.PaymentID, it.Net, it.Date)
		} else {
			fmt.Fprintf(c.stderr, "  %s  (not in payout detail)\n", it.PaymentID)
		}
	}
	if !preview.Matches() {
		fmt.Fprintln(c.stderr, "Warning: the payout breakdown does not match the pending payment ids.")
		if len(preview.Extra) > 0 {
			fmt.Fprintf(c.stderr, "Also ready to settle: %s\n", strings.Join(preview.Extra, ", "))
		}
	}
	fmt.Fprintf(c.stderr, "UTR:          %s\n", reference)

	if !*yes {
		fmt.Fprint(c.stderr, "Confirm payment? Type 'yes' to continue: ")
		answer, _ := bufio.NewReader(c.stdin).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Fprintln(c.stderr, "Cancelled.")
			return nil
		}
	}

	res, err := c.svc.Settle(ctx, core.NewPayoutRequest(payout, *utr))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stderr, res.Summary(len(payout.PaymentIDs)))
	return c.print(res)
}
