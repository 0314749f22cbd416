// Package i18n renders customer-facing messages in the shop's languages.
package i18n

import (
	"fmt"

	"orderdesk/internal/model"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys that are not error codes.
const (
	KeyOrderReadyTitle = "ORDER_READY_TITLE"
	KeyOrderReadyBody  = "ORDER_READY_BODY"
	KeyOrderStatus     = "ORDER_STATUS"
	KeyOrderPlaced     = "ORDER_PLACED"
	KeyCartTotal       = "CART_TOTAL"
)

// Supported lists the languages with a full catalog, Italian first.
var Supported = []language.Tag{language.Italian, language.English}

type entry struct {
	it string
	en string
}

var entries = map[string]entry{
	model.ErrCodeInvalidJSON:          {"Richiesta non valida", "Invalid request body"},
	model.ErrCodeInvalidID:            {"Identificativo non valido", "Invalid identifier"},
	model.ErrCodeEmptyCart:            {"Il carrello è vuoto", "Your cart is empty"},
	model.ErrCodeMissingCustomerName:  {"Il nome è obbligatorio", "Name is required"},
	model.ErrCodeMissingCustomerEmail: {"L'email è obbligatoria", "Email is required"},
	model.ErrCodeInvalidCustomerEmail: {"Email non valida", "Invalid email address"},
	model.ErrCodeInvalidQuantity:      {"La quantità deve essere compresa tra 1 e 99", "Quantity must be between 1 and 99"},
	model.ErrCodeInvalidStatus:        {"Stato ordine non valido: %s", "Invalid order status: %s"},
	model.ErrCodeInvalidProduct:       {"Il prodotto deve avere un nome e un prezzo non negativo", "A product needs a name and a non-negative price"},
	model.ErrCodeProductUnavailable:   {"Prodotto \"%s\" non disponibile", "Product \"%s\" is not available"},
	model.ErrCodeProductNotFound:      {"Prodotto non trovato", "Product not found"},
	model.ErrCodeOrderNotFound:        {"Ordine non trovato", "Order not found"},
	model.ErrCodeInvalidTransition:    {"Impossibile passare l'ordine da %s a %s", "Cannot move order from %s to %s"},
	model.ErrCodePaymentNotCompleted:  {"Pagamento non completato", "Payment not completed"},
	model.ErrCodePaymentGateway:       {"Servizio di pagamento non disponibile, riprova più tardi", "Payment service unavailable, please try again later"},
	model.ErrCodeUnauthorised:         {"Accesso non autorizzato", "Unauthorised"},
	model.ErrCodeInternalError:        {"Si è verificato un errore, riprova più tardi", "Something went wrong, please try again later"},
	KeyOrderReadyTitle:                {"Il tuo ordine è pronto!", "Your order is ready!"},
	KeyOrderReadyBody:                 {"Ordine %s - Ritiralo al bancone", "Order %s - Pick it up at the counter"},
	KeyOrderStatus:                    {"Ordine %s: %s", "Order %s: %s"},
	KeyOrderPlaced:                    {"Ordine %s creato, completa il pagamento", "Order %s placed, complete the payment"},
	KeyCartTotal:                      {"Totale: %s", "Total: %s"},
}

// Translator picks a language and renders catalog messages.
type Translator struct {
	fallback language.Tag
	matcher  language.Matcher
	catalog  catalog.Catalog
}

// NewTranslator builds the message catalog. defaultLang is used when a
// request does not name a supported language.
func NewTranslator(defaultLang string) (*Translator, error) {
	fallback, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLang, err)
	}

	matcher := language.NewMatcher(Supported)
	_, idx, conf := matcher.Match(fallback)
	if conf == language.No {
		return nil, fmt.Errorf("unsupported default language %q", defaultLang)
	}

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, e := range entries {
		if err := builder.SetString(language.Italian, key, e.it); err != nil {
			return nil, fmt.Errorf("failed to register message %s: %w", key, err)
		}
		if err := builder.SetString(language.English, key, e.en); err != nil {
			return nil, fmt.Errorf("failed to register message %s: %w", key, err)
		}
	}

	return &Translator{
		fallback: Supported[idx],
		matcher:  matcher,
		catalog:  builder,
	}, nil
}

// Default returns the shop's default language.
func (t *Translator) Default() language.Tag {
	return t.fallback
}

// Match resolves an Accept-Language header to a supported language.
func (t *Translator) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return t.fallback
	}
	return Supported[idx]
}

// Message renders key in lang.
func (t *Translator) Message(lang language.Tag, key string, args ...any) string {
	p := message.NewPrinter(lang, message.Catalog(t.catalog))
	return p.Sprintf(key, args...)
}

// Error renders a domain error in lang. Errors without a catalog entry
// fall back to the generic internal error message.
func (t *Translator) Error(lang language.Tag, err *model.DomainError) string {
	if _, ok := entries[err.Code]; !ok {
		return t.Message(lang, model.ErrCodeInternalError)
	}
	return t.Message(lang, err.Code, err.Args...)
}

// Price renders an amount in minor units with the currency symbol.
func (t *Translator) Price(lang language.Tag, code string, cents int64) (string, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	p := message.NewPrinter(lang)
	return p.Sprint(currency.Symbol(unit.Amount(float64(cents) / 100))), nil
}
