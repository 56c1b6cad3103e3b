package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/distrifresco/internal/application/session"
	"github.com/tu-usuario/distrifresco/internal/domain"
	"github.com/tu-usuario/distrifresco/internal/domain/entity"
	"github.com/tu-usuario/distrifresco/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de test
// ──────────────────────────────────────────────────────────────────────────────

type fakeBackend struct {
	mu sync.Mutex

	loginCredential string
	loginPrincipal  *entity.User
	loginErr        error

	validatePrincipal *entity.User
	validateErr       error
	validateCalls     int
	validateBlock     chan struct{} // Si no es nil, ValidateCredential espera aquí

	logoutCalls int
}

func (f *fakeBackend) Login(ctx context.Context, identifier, secret string) (string, *entity.User, error) {
	if f.loginErr != nil {
		return "", nil, f.loginErr
	}
	return f.loginCredential, f.loginPrincipal, nil
}

func (f *fakeBackend) ValidateCredential(ctx context.Context, credential string) (*entity.User, error) {
	f.mu.Lock()
	f.validateCalls++
	block := f.validateBlock
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	return f.validatePrincipal, nil
}

func (f *fakeBackend) Logout(ctx context.Context, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls++
	return nil
}

type fakeCredStore struct {
	mu         sync.Mutex
	credential string
	principal  *entity.User
	loadErr    error
	clearCalls int
}

func (f *fakeCredStore) Load() (string, *entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return "", nil, f.loadErr
	}
	return f.credential, f.principal, nil
}

func (f *fakeCredStore) Save(credential string, principal *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = credential
	f.principal = principal
	return nil
}

func (f *fakeCredStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	f.credential = ""
	f.principal = nil
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func principalMarta() *entity.User {
	return &entity.User{ID: "u-7", DisplayName: "Marta", Role: entity.RoleEmpleado}
}

// credencialPara genera un JWT (firma irrelevante: esta capa no la verifica)
// con sub = userID y expiración en una hora.
func credencialPara(t *testing.T, userID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("secreto-del-backend-remoto"))
	require.NoError(t, err)
	return signed
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Login / Logout
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_Exitoso_AutenticaYPersiste(t *testing.T) {
	backend := &fakeBackend{loginCredential: credencialPara(t, "u-7"), loginPrincipal: principalMarta()}
	creds := &fakeCredStore{}
	store := session.NewStore(backend, creds, testLogger())

	require.NoError(t, store.Login(context.Background(), "marta", "clave"))

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionAuthenticated, snap.Status)
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "u-7", snap.Principal.ID)
	assert.NotEmpty(t, snap.Credential)
	assert.NotEmpty(t, creds.credential, "la credencial debe quedar persistida")
}

func TestLogin_Rechazado_DejaEstadoPrevioIntacto(t *testing.T) {
	backend := &fakeBackend{loginErr: domain.ErrAuthenticationFailed}
	store := session.NewStore(backend, &fakeCredStore{}, testLogger())

	err := store.Login(context.Background(), "marta", "clave-mala")
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	assert.Equal(t, entity.SessionUnauthenticated, store.Snapshot().Status)
}

func TestLogout_LimpiaMemoriaYPersistencia(t *testing.T) {
	backend := &fakeBackend{loginCredential: credencialPara(t, "u-7"), loginPrincipal: principalMarta()}
	creds := &fakeCredStore{}
	store := session.NewStore(backend, creds, testLogger())
	require.NoError(t, store.Login(context.Background(), "marta", "clave"))

	store.Logout(context.Background())

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionUnauthenticated, snap.Status)
	assert.Nil(t, snap.Principal)
	assert.Empty(t, snap.Credential)
	assert.Empty(t, creds.credential)
	assert.Equal(t, 1, backend.logoutCalls, "debe avisar al backend (mejor esfuerzo)")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Initialize (restauración)
// ──────────────────────────────────────────────────────────────────────────────

func TestInitialize_RestauraSesionPersistida(t *testing.T) {
	principal := principalMarta()
	backend := &fakeBackend{validatePrincipal: principal}
	creds := &fakeCredStore{credential: credencialPara(t, principal.ID), principal: principal}
	store := session.NewStore(backend, creds, testLogger())

	store.Initialize(context.Background())

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionAuthenticated, snap.Status)
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "u-7", snap.Principal.ID)
}

func TestInitialize_PersistenciaIlegible_LimpiaYQuedaUnauthenticated(t *testing.T) {
	creds := &fakeCredStore{loadErr: assert.AnError}
	store := session.NewStore(&fakeBackend{}, creds, testLogger())

	store.Initialize(context.Background())

	assert.Equal(t, entity.SessionUnauthenticated, store.Snapshot().Status)
	assert.Equal(t, 1, creds.clearCalls, "fallar seguro: el estado persistido se limpia")
}

func TestInitialize_CredencialDeOtroPrincipal_Limpia(t *testing.T) {
	// La credencial fue emitida para otro usuario: inconsistente con el cache.
	creds := &fakeCredStore{credential: credencialPara(t, "u-extraño"), principal: principalMarta()}
	store := session.NewStore(&fakeBackend{}, creds, testLogger())

	store.Initialize(context.Background())

	assert.Equal(t, entity.SessionUnauthenticated, store.Snapshot().Status)
	assert.Empty(t, creds.credential)
}

func TestInitialize_CredencialRechazada_Limpia(t *testing.T) {
	principal := principalMarta()
	backend := &fakeBackend{validateErr: domain.ErrUnauthorized}
	creds := &fakeCredStore{credential: credencialPara(t, principal.ID), principal: principal}
	store := session.NewStore(backend, creds, testLogger())

	store.Initialize(context.Background())

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionUnauthenticated, snap.Status)
	assert.Nil(t, snap.Principal, "ningún principal debe quedar retenido")
	assert.Empty(t, creds.credential)
}

func TestInitialize_BackendInalcanzable_RestauracionOptimista(t *testing.T) {
	principal := principalMarta()
	backend := &fakeBackend{validateErr: domain.ErrBackendUnavailable}
	creds := &fakeCredStore{credential: credencialPara(t, principal.ID), principal: principal}
	store := session.NewStore(backend, creds, testLogger())

	store.Initialize(context.Background())

	assert.Equal(t, entity.SessionAuthenticated, store.Snapshot().Status,
		"sin red se restaura con el principal cacheado; el primer 401 derriba la sesión")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Revalidate
// ──────────────────────────────────────────────────────────────────────────────

func autenticado(t *testing.T, backend *fakeBackend, creds *fakeCredStore) *session.Store {
	t.Helper()
	backend.loginCredential = credencialPara(t, "u-7")
	backend.loginPrincipal = principalMarta()
	store := session.NewStore(backend, creds, testLogger())
	require.NoError(t, store.Login(context.Background(), "marta", "clave"))
	return store
}

func TestRevalidate_ReemplazaElPrincipalCompleto(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})
	backend.validatePrincipal = &entity.User{ID: "u-7", DisplayName: "Marta G.", Role: entity.RoleAdministrador}

	store.Revalidate(context.Background())

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionAuthenticated, snap.Status)
	assert.Equal(t, "Marta G.", snap.Principal.DisplayName)
	assert.Equal(t, entity.RoleAdministrador, snap.Principal.Role, "el principal se reemplaza, nunca se parchea")
}

func TestRevalidate_CredencialInvalida_CierraSesionYLimpia(t *testing.T) {
	backend := &fakeBackend{}
	creds := &fakeCredStore{}
	store := autenticado(t, backend, creds)
	backend.validateErr = domain.ErrUnauthorized

	store.Revalidate(context.Background())

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionUnauthenticated, snap.Status)
	assert.Nil(t, snap.Principal)
	assert.Empty(t, creds.credential, "la credencial persistida debe limpiarse")
}

func TestRevalidate_FalloDeRed_ConservaLaSesion(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})
	backend.validateErr = domain.ErrBackendUnavailable

	store.Revalidate(context.Background())

	assert.Equal(t, entity.SessionAuthenticated, store.Snapshot().Status,
		"un fallo transitorio no cierra la sesión; se reintenta en el próximo ciclo")
}

func TestRevalidate_EnVueloSuprimeUnaNueva(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})

	block := make(chan struct{})
	backend.mu.Lock()
	backend.validateBlock = block
	backend.validatePrincipal = principalMarta()
	base := backend.validateCalls
	backend.mu.Unlock()

	done := make(chan struct{})
	go func() {
		store.Revalidate(context.Background())
		close(done)
	}()

	// Esperar a que la primera revalidación esté en vuelo.
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.validateCalls == base+1
	}, time.Second, 5*time.Millisecond)

	store.Revalidate(context.Background()) // Debe suprimirse sin llamar al backend

	close(block)
	<-done

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, base+1, backend.validateCalls, "la revalidación solapada se suprime")
}

func TestRevalidate_SuperadaPorLogout_DescartaResultado(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})

	block := make(chan struct{})
	backend.mu.Lock()
	backend.validateBlock = block
	backend.validatePrincipal = principalMarta()
	backend.mu.Unlock()

	done := make(chan struct{})
	go func() {
		store.Revalidate(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.validateCalls >= 1
	}, time.Second, 5*time.Millisecond)

	// Logout mientras la revalidación está en vuelo: la identidad cambió.
	backend.mu.Lock()
	backend.validateBlock = nil
	backend.mu.Unlock()
	store.Logout(context.Background())

	close(block)
	<-done

	assert.Equal(t, entity.SessionUnauthenticated, store.Snapshot().Status,
		"el resultado de la revalidación superada se descarta, no se aplica fuera de orden")
}

// Una revalidación rechazada cuyo resultado llega después de un Login exitoso
// quedó superada: su teardown se descarta y la sesión nueva sobrevive.
func TestRevalidate_RechazoSuperadoPorLogin_NoDerribaLaSesionNueva(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})

	block := make(chan struct{})
	backend.mu.Lock()
	backend.validateBlock = block
	backend.validateErr = domain.ErrUnauthorized
	backend.mu.Unlock()

	done := make(chan struct{})
	go func() {
		store.Revalidate(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.validateCalls >= 1
	}, time.Second, 5*time.Millisecond)

	// Login mientras el rechazo está en vuelo: la identidad cambió de epoch.
	require.NoError(t, store.Login(context.Background(), "marta", "clave"))

	close(block)
	<-done

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionAuthenticated, snap.Status,
		"el teardown de la revalidación superada no debe pisar el Login posterior")
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "u-7", snap.Principal.ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests broadcast y 401 global
// ──────────────────────────────────────────────────────────────────────────────

func TestSubscribe_RecibeTransiciones(t *testing.T) {
	backend := &fakeBackend{loginCredential: credencialPara(t, "u-7"), loginPrincipal: principalMarta()}
	store := session.NewStore(backend, &fakeCredStore{}, testLogger())

	var mu sync.Mutex
	var vistos []entity.SessionStatus
	unsubscribe := store.Subscribe(func(s entity.Session) {
		mu.Lock()
		vistos = append(vistos, s.Status)
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, store.Login(context.Background(), "marta", "clave"))
	store.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []entity.SessionStatus{entity.SessionAuthenticated, entity.SessionUnauthenticated}, vistos)
}

func TestHandleCredentialRejected_DerribaLaSesion(t *testing.T) {
	backend := &fakeBackend{}
	creds := &fakeCredStore{}
	store := autenticado(t, backend, creds)

	store.HandleCredentialRejected(store.Snapshot().Credential)

	assert.Equal(t, entity.SessionUnauthenticated, store.Snapshot().Status)
	assert.Empty(t, creds.credential)
	assert.Equal(t, 0, backend.logoutCalls, "una credencial muerta no se notifica al backend")
}

// Un 401 de una petición abandonada, hecha con una credencial ya reemplazada,
// no puede derribar la sesión que la reemplazó.
func TestHandleCredentialRejected_CredencialAnterior_SeIgnora(t *testing.T) {
	backend := &fakeBackend{}
	store := autenticado(t, backend, &fakeCredStore{})

	store.HandleCredentialRejected("credencial-de-una-sesion-anterior")

	snap := store.Snapshot()
	assert.Equal(t, entity.SessionAuthenticated, snap.Status,
		"el rechazo de una credencial vieja pertenece a la sesión anterior")
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "u-7", snap.Principal.ID)
}
