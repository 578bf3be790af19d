package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Skotchmaster/momento/internal/nav"
	"github.com/Skotchmaster/momento/internal/session"
	"github.com/Skotchmaster/momento/internal/storefront"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: storefront <command> [args]

commands:
  login -email E -password P
  register -email E -password P -confirm P
  logout
  whoami
  products [-html]
  quickview ID
  add ID
  cart
  qty INDEX DELTA
  remove INDEX
  checkout
  api-url [set URL | reset]
  nav CURRENT_PATH HREF
`)
}

func (a *app) run(ctx context.Context, name string, args []string) int {
	cmds := map[string]func(context.Context, []string) error{
		"login":     a.login,
		"register":  a.register,
		"logout":    a.logout,
		"whoami":    a.whoami,
		"products":  a.products,
		"quickview": a.quickview,
		"add":       a.add,
		"cart":      a.cart,
		"qty":       a.qty,
		"remove":    a.remove,
		"checkout":  a.checkout,
		"api-url":   a.apiURL,
		"nav":       a.nav,
	}

	cmd, ok := cmds[name]
	if !ok {
		usage(a.out)
		return 2
	}

	if err := cmd(ctx, args); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			usage(a.out)
			return 2
		}
		a.log.Debug("command failed", "command", name, "error", err)
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.shop.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	if res.User != nil {
		fmt.Fprintf(a.out, "logged in as %s (%s)\n", res.User.Email, res.User.RoleName())
	}
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.shop.Register(ctx, *email, *password, *confirm)
}

func (a *app) logout(ctx context.Context, _ []string) error {
	return a.shop.Logout(ctx)
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	link, err := a.shop.AuthLink(ctx)
	if err != nil {
		return err
	}
	u, err := a.shop.Session().CurrentUser(ctx)
	if err != nil {
		return err
	}

	switch {
	case u != nil:
		fmt.Fprintf(a.out, "%s (%s)\n", u.Email, u.RoleName())
	case link.Label == "Logout":
		tok, err := a.shop.Session().Token(ctx)
		if err != nil {
			return err
		}
		if role := session.RoleFromToken(tok); role != "" {
			fmt.Fprintf(a.out, "logged in (token claims role %s)\n", role)
		} else {
			fmt.Fprintln(a.out, "logged in")
		}
	default:
		fmt.Fprintln(a.out, "not logged in")
	}
	fmt.Fprintf(a.out, "header link: %s -> %s\n", link.Label, link.Href)
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	asHTML := fs.Bool("html", false, "print the product grid markup")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cards, err := a.shop.LoadProducts(ctx)
	if err != nil {
		return err
	}
	if *asHTML {
		return storefront.RenderCards(a.out, cards)
	}

	if len(cards) == 0 {
		fmt.Fprintln(a.out, "No products available")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE")
	for _, c := range cards {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, storefront.FormatPrice(c.Price))
	}
	return tw.Flush()
}

func (a *app) quickview(ctx context.Context, args []string) error {
	id, err := intArg(args, 0)
	if err != nil {
		return err
	}
	d, err := a.shop.QuickView(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s  %s\n%s\nimage: %s\n", d.Name, d.PriceLabel, d.Description, d.Image)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	id, err := intArg(args, 0)
	if err != nil {
		return err
	}
	_, err = a.shop.AddFromCard(ctx, id)
	return err
}

func (a *app) cart(ctx context.Context, _ []string) error {
	items, err := a.shop.Cart().Items(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRODUCT\tQTY\tPRICE\tLINE")
	for i, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", i, it.Name, it.Qty,
			storefront.FormatPrice(it.Price), storefront.FormatPrice(it.Price*float64(it.Qty)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	t, err := a.shop.Cart().Totals(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "items: %d  subtotal: %s  total: %s\n",
		t.ItemCount, storefront.FormatPrice(t.Subtotal), storefront.FormatPrice(t.Total))
	return nil
}

func (a *app) qty(ctx context.Context, args []string) error {
	index, err := intArg(args, 0)
	if err != nil {
		return err
	}
	delta, err := intArg(args, 1)
	if err != nil {
		return err
	}
	if _, err := a.shop.UpdateQuantity(ctx, index, delta); err != nil {
		return err
	}
	return a.cart(ctx, nil)
}

func (a *app) remove(ctx context.Context, args []string) error {
	index, err := intArg(args, 0)
	if err != nil {
		return err
	}
	if _, err := a.shop.RemoveItem(ctx, index); err != nil {
		return err
	}
	return a.cart(ctx, nil)
}

func (a *app) checkout(ctx context.Context, _ []string) error {
	receipt, err := a.shop.PlaceOrder(ctx)
	var oe *storefront.OrderError
	if errors.As(err, &oe) {
		for _, f := range oe.Failed {
			fmt.Fprintf(a.out, "failed: %s x%d: %v\n", f.Item.Name, f.Item.Qty, f.Err)
		}
		for _, p := range oe.Placed {
			fmt.Fprintf(a.out, "placed: %s x%d\n", p.Name, p.Qty)
		}
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ordered %d item(s), total %s\n",
		receipt.Totals.ItemCount, storefront.FormatPrice(receipt.Totals.Total))
	return nil
}

func (a *app) apiURL(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
	case args[0] == "set" && len(args) == 2:
		if err := a.resolver.Promote(ctx, args[1]); err != nil {
			return err
		}
	case args[0] == "reset" && len(args) == 1:
		if err := a.resolver.Reset(ctx); err != nil {
			return err
		}
	default:
		return errUsage
	}

	fmt.Fprintf(a.out, "current:  %s\ndefault:  %s\nfallback: %s\n",
		a.resolver.Current(), a.resolver.Default(), a.resolver.Fallback())
	return nil
}

func (a *app) nav(_ context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	act := nav.Intercept(args[0], args[1])
	if !act.Intercept {
		fmt.Fprintf(a.out, "follow %s\n", args[1])
		return nil
	}
	fmt.Fprintf(a.out, "push %s, scroll to %q\n", act.PushState, act.ScrollTo)
	return nil
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[i])
	}
	return n, nil
}
