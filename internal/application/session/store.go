// Package session mantiene la única sesión autenticada de la instancia en
// ejecución: restauración al arrancar, login/logout y revalidación periódica.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
	"github.com/tu-usuario/distrifresco/pkg/logger"
	"github.com/tu-usuario/distrifresco/pkg/token"
)

// AuthBackend puerto hacia el backend remoto para autenticación.
type AuthBackend interface {
	// Login entrega credencial y principal; domain.ErrAuthenticationFailed si el
	// backend rechaza las credenciales.
	Login(ctx context.Context, identifier, secret string) (credential string, principal *entity.User, err error)
	// ValidateCredential re-obtiene el principal con la credencial vigente;
	// domain.ErrUnauthorized si la credencial ya no sirve.
	ValidateCredential(ctx context.Context, credential string) (*entity.User, error)
	// Logout aviso al backend; mejor esfuerzo.
	Logout(ctx context.Context, credential string) error
}

// CredentialStore puerto de persistencia de la sesión entre reinicios:
// dos claves durables (credencial y principal cacheado), last-writer-wins.
type CredentialStore interface {
	Load() (credential string, principal *entity.User, err error)
	Save(credential string, principal *entity.User) error
	Clear() error
}

// Subscriber recibe cada transición de estado de la sesión (broadcast, no request/response).
type Subscriber func(entity.Session)

// Store sesión única del proceso con disciplina de escritor único: solo una
// operación mutadora es "vigente" a la vez; una revalidación superada por un
// login/logout descarta su resultado en lugar de aplicarlo fuera de orden.
type Store struct {
	backend AuthBackend
	creds   CredentialStore
	log     *logger.Logger
	now     func() time.Time

	mu           sync.Mutex
	status       entity.SessionStatus
	principal    *entity.User
	credential   string
	epoch        uint64 // Incrementa en cada cambio de identidad; invalida resultados en vuelo
	revalidating bool   // Suprime revalidaciones solapadas

	subMu   sync.Mutex
	subs    map[uint64]Subscriber
	nextSub uint64
}

// NewStore construye el store de sesión en estado Unauthenticated.
func NewStore(backend AuthBackend, creds CredentialStore, log *logger.Logger) *Store {
	return &Store{
		backend: backend,
		creds:   creds,
		log:     log,
		now:     time.Now,
		status:  entity.SessionUnauthenticated,
		subs:    make(map[uint64]Subscriber),
	}
}

// Snapshot devuelve el valor actual de la sesión (copia; el principal no se comparte).
func (s *Store) Snapshot() entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() entity.Session {
	snap := entity.Session{Status: s.status, Credential: s.credential}
	if s.principal != nil {
		p := *s.principal
		snap.Principal = &p
	}
	return snap
}

// Subscribe registra un observador de transiciones; devuelve la función para darse de baja.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) broadcast(snap entity.Session) {
	s.subMu.Lock()
	fns := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Initialize restaura la sesión desde la credencial persistida. Un estado
// persistido ilegible o inconsistente se limpia y se arranca Unauthenticated
// (fallar seguro). Con cache válido intenta confirmar contra el backend: un
// rechazo limpia todo; un fallo de red conserva el principal cacheado y deja
// la confirmación a la revalidación periódica.
func (s *Store) Initialize(ctx context.Context) {
	credential, principal, err := s.creds.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("sesión persistida ilegible, limpiando")
		_ = s.creds.Clear()
		return
	}
	if credential == "" || principal == nil {
		return
	}
	subject, _, err := token.Peek(credential)
	if err != nil || subject != principal.ID || token.Expired(credential, s.now()) {
		s.log.Warn().Msg("credencial persistida expirada o inconsistente, limpiando")
		_ = s.creds.Clear()
		return
	}

	s.mu.Lock()
	s.status = entity.SessionValidating
	s.principal = principal
	s.credential = credential
	epoch := s.epoch
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)

	fresh, err := s.backend.ValidateCredential(ctx, credential)
	s.mu.Lock()
	if s.epoch != epoch {
		// Un login/logout manual se adelantó durante la restauración.
		s.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		s.status = entity.SessionAuthenticated
		s.principal = fresh
		_ = s.creds.Save(s.credential, fresh)
	case isCredentialRejected(err):
		s.clearLocked()
	default:
		// Backend inalcanzable: restauración optimista con el principal cacheado.
		// Si la credencial ya no sirve, el primer 401 del gateway forzará el logout.
		s.log.Warn().Err(err).Msg("no se pudo confirmar la sesión restaurada")
		s.status = entity.SessionAuthenticated
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
}

// Login autentica contra el backend. Un rechazo deja el estado previo intacto
// y devuelve domain.ErrAuthenticationFailed.
func (s *Store) Login(ctx context.Context, identifier, secret string) error {
	credential, principal, err := s.backend.Login(ctx, identifier, secret)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.epoch++
	s.status = entity.SessionAuthenticated
	s.principal = principal
	s.credential = credential
	if err := s.creds.Save(credential, principal); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo persistir la sesión")
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	s.log.Info().Str("user", principal.ID).Str("role", string(principal.Role)).Msg("sesión iniciada")
	return nil
}

// Logout avisa al backend (mejor esfuerzo) y limpia incondicionalmente la sesión
// en memoria y persistida. Nunca falla desde la perspectiva del caller.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()

	if credential != "" {
		if err := s.backend.Logout(ctx, credential); err != nil {
			s.log.Debug().Err(err).Msg("aviso de logout al backend falló")
		}
	}
	s.teardown()
}

// HandleCredentialRejected reacciona a un 401 de cualquier llamada del gateway.
// Recibe la credencial que la petición usó: si ya no es la vigente (un
// login/logout la reemplazó mientras la petición estaba en vuelo), el rechazo
// pertenece a una sesión anterior y se ignora en lugar de derribar la nueva.
func (s *Store) HandleCredentialRejected(credential string) {
	s.mu.Lock()
	if credential == "" || credential != s.credential {
		s.mu.Unlock()
		return
	}
	s.log.Warn().Msg("credencial rechazada por el backend, cerrando sesión")
	s.epoch++
	s.clearLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
}

func (s *Store) teardown() {
	s.mu.Lock()
	s.epoch++
	s.clearLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
}

func (s *Store) clearLocked() {
	s.status = entity.SessionUnauthenticated
	s.principal = nil
	s.credential = ""
	_ = s.creds.Clear()
}

// Revalidate re-obtiene el principal con la credencial vigente y lo reemplaza
// completo. Una revalidación en vuelo suprime la nueva; si un login/logout
// cambió la identidad mientras tanto, el resultado se descarta (también el
// rechazo: jamás derriba una sesión que ya no es la suya). Un rechazo de
// credencial vigente limpia la sesión; un fallo de red conserva el estado.
func (s *Store) Revalidate(ctx context.Context) {
	s.mu.Lock()
	if s.revalidating || s.status != entity.SessionAuthenticated {
		s.mu.Unlock()
		return
	}
	s.revalidating = true
	epoch := s.epoch
	credential := s.credential
	s.mu.Unlock()

	fresh, err := s.backend.ValidateCredential(ctx, credential)

	// Chequeo de epoch y aplicación del resultado en la misma sección crítica:
	// un Login que se complete entre ambos no puede ser pisado por el teardown.
	s.mu.Lock()
	s.revalidating = false
	if s.epoch != epoch {
		s.mu.Unlock()
		return // Superada por login/logout: resultado descartado
	}
	switch {
	case err == nil:
		s.principal = fresh
		_ = s.creds.Save(s.credential, fresh)
	case isCredentialRejected(err):
		s.log.Warn().Msg("credencial rechazada en revalidación, cerrando sesión")
		s.epoch++
		s.clearLocked()
	default:
		s.mu.Unlock()
		s.log.Debug().Err(err).Msg("revalidación sin respuesta del backend, se reintenta en el próximo ciclo")
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
}

// RunRevalidationLoop revalida a intervalo fijo hasta que ctx se cancele.
// Una sola tarea programada por proceso; el solapamiento lo suprime Revalidate.
func (s *Store) RunRevalidationLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Revalidate(ctx)
		}
	}
}

func isCredentialRejected(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrAuthenticationFailed)
}
