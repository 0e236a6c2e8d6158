package eventbus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/pkg/logger"
)

// Handler procesa un evento de dominio ya publicado.
type Handler func(ctx context.Context, event inventory.Event)

// Bus es un bus de eventos en proceso. Publish encola y retorna de inmediato;
// cada evento se despacha a los suscriptores en una goroutine propia, de modo
// que un suscriptor lento nunca frena al caso de uso que publicó.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler // nombre de evento -> suscriptores; "" = todos
	wg       sync.WaitGroup
	log      *logger.Logger
}

// New crea un bus vacío.
func New(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registra un handler para los nombres de evento dados. Sin nombres,
// el handler recibe todos los eventos.
func (b *Bus) Subscribe(handler Handler, eventNames ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(eventNames) == 0 {
		b.handlers[""] = append(b.handlers[""], handler)
		return
	}
	for _, name := range eventNames {
		b.handlers[name] = append(b.handlers[name], handler)
	}
}

// Publish despacha el evento de forma asíncrona y retorna sin esperar.
func (b *Bus) Publish(ctx context.Context, event inventory.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Name])+len(b.handlers[""]))
	handlers = append(handlers, b.handlers[event.Name]...)
	handlers = append(handlers, b.handlers[""]...)
	b.mu.RUnlock()

	if b.log != nil {
		b.log.Debug().
			Str("evento", event.Name).
			Str("tenant_id", event.TenantID).
			Int("suscriptores", len(handlers)).
			Msg("evento publicado")
	}

	for _, h := range handlers {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			// El contexto de la petición puede ya estar cancelado; los
			// suscriptores corren con un contexto independiente.
			h(context.WithoutCancel(ctx), event)
		}()
	}
	return nil
}

// Close espera a que los despachos en vuelo terminen (shutdown ordenado).
func (b *Bus) Close() {
	b.wg.Wait()
}
