// Package sessionfile persiste la sesión entre reinicios de la aplicación:
// la credencial y el principal cacheado en un archivo JSON. Es el único
// recurso durable de esta capa; escrituras last-writer-wins sin bitácora.
package sessionfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// persistedSession las dos claves durables de la sesión.
type persistedSession struct {
	Credential string         `json:"credential"`
	Principal  *principalJSON `json:"principal,omitempty"`
	SavedAt    time.Time      `json:"saved_at"`
}

type principalJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Store persistencia de sesión en archivo. Implementa session.CredentialStore.
type Store struct {
	path string
}

// NewStore construye el store sobre la ruta dada.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load lee la sesión persistida. Archivo ausente no es error (sesión vacía);
// un archivo corrupto sí lo es, para que el caller limpie y arranque sin sesión.
func (s *Store) Load() (string, *entity.User, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("sessionfile: leer %s: %w", s.path, err)
	}

	var ps persistedSession
	if err := json.Unmarshal(raw, &ps); err != nil {
		return "", nil, fmt.Errorf("sessionfile: %s corrupto: %w", s.path, err)
	}
	if ps.Credential == "" || ps.Principal == nil {
		return "", nil, nil
	}
	return ps.Credential, &entity.User{
		ID:          ps.Principal.ID,
		DisplayName: ps.Principal.DisplayName,
		Role:        entity.Role(ps.Principal.Role),
	}, nil
}

// Save escribe la sesión de forma atómica (archivo temporal + rename) para que
// un corte a mitad de escritura nunca deje un archivo a medias.
func (s *Store) Save(credential string, principal *entity.User) error {
	ps := persistedSession{Credential: credential, SavedAt: time.Now()}
	if principal != nil {
		ps.Principal = &principalJSON{
			ID:          principal.ID,
			DisplayName: principal.DisplayName,
			Role:        string(principal.Role),
		}
	}
	raw, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("sessionfile: serializar: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("sessionfile: crear directorio: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("sessionfile: escribir %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("sessionfile: renombrar: %w", err)
	}
	return nil
}

// Clear elimina el archivo; ausente ya cuenta como limpio.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sessionfile: eliminar %s: %w", s.path, err)
	}
	return nil
}
