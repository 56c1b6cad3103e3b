package backend

import (
	"context"
	"fmt"

	"github.com/tu-usuario/distrifresco/internal/domain/entity"
)

// Rutas de autenticación del backend remoto.
const (
	pathLogin    = "/api/auth/login"
	pathLogout   = "/api/auth/logout"
	pathValidate = "/api/auth/me"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

type userPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (p userPayload) toEntity() *entity.User {
	return &entity.User{ID: p.ID, DisplayName: p.DisplayName, Role: entity.Role(p.Role)}
}

// Login pide una credencial al backend. Un 401 aquí significa credenciales de
// acceso rechazadas (corregible por el usuario), no una sesión caída.
func (c *Client) Login(ctx context.Context, identifier, secret string) (string, *entity.User, error) {
	var out loginResponse
	if err := c.exec(ctx, "POST", pathLogin, nil, "", loginRequest{Identifier: identifier, Secret: secret}, &out, rejectLogin); err != nil {
		return "", nil, err
	}
	if out.Token == "" || out.User.ID == "" {
		return "", nil, fmt.Errorf("backend: respuesta de login incompleta")
	}
	return out.Token, out.User.toEntity(), nil
}

// ValidateCredential re-obtiene el principal con una credencial explícita.
// domain.ErrUnauthorized cuando la credencial ya no sirve.
func (c *Client) ValidateCredential(ctx context.Context, credential string) (*entity.User, error) {
	var out userPayload
	if err := c.exec(ctx, "GET", pathValidate, nil, credential, nil, &out, rejectQuiet); err != nil {
		return nil, err
	}
	return out.toEntity(), nil
}

// Logout avisa al backend que la credencial se abandona. Mejor esfuerzo.
func (c *Client) Logout(ctx context.Context, credential string) error {
	return c.exec(ctx, "POST", pathLogout, nil, credential, nil, nil, rejectQuiet)
}
