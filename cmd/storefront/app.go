package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal/cart"
	"orderdesk/internal/client"
	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/tracker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

const usage = `usage: storefront <command> [arguments]

commands:
  menu                          list the products on sale
  cart add <product>            add one unit (product id or menu number)
  cart remove <product-id>      remove a line
  cart set <product-id> <qty>   set a quantity (0 removes)
  cart show                     show the cart
  cart clear                    empty the cart
  checkout -name N -email E     place the order for the cart
  confirm <session-id>          confirm a completed payment
  track <order-number>          follow an order until it is collected`

// storefrontAPI is the part of the public API the CLI uses.
type storefrontAPI interface {
	tracker.StatusFetcher
	Menu(ctx context.Context) ([]model.Product, error)
	Checkout(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error)
}

type app struct {
	api          storefrontAPI
	cart         *cart.Cart
	translator   *i18n.Translator
	lang         language.Tag
	currency     string
	pollInterval time.Duration
	out          io.Writer
	logger       zerolog.Logger
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	var err error
	switch args[0] {
	case "menu":
		err = a.menu(ctx)
	case "cart":
		err = a.cartCommand(ctx, args[1:])
	case "checkout":
		err = a.checkout(ctx, args[1:])
	case "confirm":
		if len(args) != 2 {
			return errors.New("usage: storefront confirm <session-id>")
		}
		err = a.confirm(ctx, args[1])
	case "track":
		if len(args) != 2 {
			return errors.New("usage: storefront track <order-number>")
		}
		err = a.track(ctx, args[1])
	case "help", "-h", "--help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", args[0], usage)
	}

	return userError(err)
}

// userError replaces API errors with the localized message from the server.
func userError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}

func (a *app) price(cents int64) string {
	s, err := a.translator.Price(a.lang, a.currency, cents)
	if err != nil {
		return strconv.FormatInt(cents, 10)
	}
	return s
}

func (a *app) menu(ctx context.Context) error {
	products, err := a.api.Menu(ctx)
	if err != nil {
		return err
	}

	for i, p := range products {
		fmt.Fprintf(a.out, "%2d. %-30s %10s  %s\n", i+1, p.Name, a.price(p.PriceCents), p.ID)
		if p.Description != nil && *p.Description != "" {
			fmt.Fprintf(a.out, "    %s\n", *p.Description)
		}
	}
	return nil
}

func (a *app) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: storefront cart add|remove|set|show|clear")
	}

	switch args[0] {
	case "add":
		if len(args) != 2 {
			return errors.New("usage: storefront cart add <product>")
		}
		product, err := a.findProduct(ctx, args[1])
		if err != nil {
			return err
		}
		if err := a.cart.Add(*product); err != nil {
			return err
		}
	case "remove":
		if len(args) != 2 {
			return errors.New("usage: storefront cart remove <product-id>")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		if err := a.cart.Remove(id); err != nil {
			return err
		}
	case "set":
		if len(args) != 3 {
			return errors.New("usage: storefront cart set <product-id> <qty>")
		}
		id, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[1])
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		if err := a.cart.SetQuantity(id, qty); err != nil {
			return err
		}
	case "clear":
		if err := a.cart.Clear(); err != nil {
			return err
		}
	case "show":
	default:
		return fmt.Errorf("unknown cart command %q", args[0])
	}

	a.showCart()
	return nil
}

// findProduct resolves a product id or a 1-based menu number against the
// current menu, so only products on sale can be added.
func (a *app) findProduct(ctx context.Context, ref string) (*model.Product, error) {
	products, err := a.api.Menu(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(products) {
			return nil, fmt.Errorf("no menu item %d", n)
		}
		return &products[n-1], nil
	}

	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid product %q", ref)
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, model.ProductUnavailable(ref)
}

func (a *app) showCart() {
	lines := a.cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, a.translator.Error(a.lang, model.ErrEmptyCart))
		return
	}

	for _, l := range lines {
		fmt.Fprintf(a.out, "%3d x %-30s %10s  %s\n",
			l.Quantity, l.Name, a.price(l.UnitPriceCents*int64(l.Quantity)), l.ProductID)
	}
	fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyCartTotal, a.price(a.cart.TotalCents())))
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "customer name")
	email := fs.String("email", "", "customer email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.api.Checkout(ctx, model.CheckoutRequest{
		Items:         a.cart.CheckoutItems(),
		CustomerName:  strings.TrimSpace(*name),
		CustomerEmail: strings.TrimSpace(*email),
	})
	if err != nil {
		return err
	}

	if err := a.cart.Clear(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to clear cart after checkout")
	}

	fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyOrderPlaced, resp.OrderNumber))
	fmt.Fprintf(a.out, "order_id: %s\nclient_secret: %s\n", resp.OrderID, resp.ClientSecret)
	return nil
}

func (a *app) confirm(ctx context.Context, sessionID string) error {
	order, err := a.api.ConfirmPayment(ctx, sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyOrderStatus, order.OrderNumber, string(order.Status)))
	return nil
}

// track polls the order and prints every status change. It returns once
// the order is completed or cancelled, or when ctx is done. An order that is
// unknown on the first poll ends tracking with ErrOrderNotFound.
func (a *app) track(ctx context.Context, orderNumber string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		detector tracker.ReadyDetector
		last     model.OrderStatus
		notFound error
	)

	poller := tracker.NewPoller(a.api, tracker.Config{
		OrderNumber: orderNumber,
		Interval:    a.pollInterval,
		OnUpdate: func(snap model.StatusSnapshot) {
			if snap.Status != last {
				fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyOrderStatus, snap.OrderNumber, string(snap.Status)))
				last = snap.Status
			}
			if detector.Observe(snap.Status) {
				fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyOrderReadyTitle))
				fmt.Fprintln(a.out, a.translator.Message(a.lang, i18n.KeyOrderReadyBody, snap.OrderNumber))
			}
		},
		OnError: func(err error) {
			if last == "" && client.IsNotFound(err) {
				notFound = err
				cancel()
			}
		},
	}, a.logger)

	if err := poller.Start(ctx); err != nil {
		return err
	}
	<-poller.Done()

	return notFound
}
