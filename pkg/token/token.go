// Package token inspecciona credenciales JWT emitidas por el backend remoto.
// Esta capa NO posee la llave de firma: nunca verifica la firma, solo lee los
// claims para chequear consistencia (subject) y expiración antes de usar una
// credencial restaurada. La validación real la hace el backend en cada llamada.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Peek lee subject y expiración de una credencial sin verificar la firma.
// Retorna error si el token no es un JWT bien formado.
func Peek(credential string) (subject string, expiresAt time.Time, err error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err = parser.ParseUnverified(credential, claims); err != nil {
		return "", time.Time{}, fmt.Errorf("token: credencial malformada: %w", err)
	}
	subject, err = claims.GetSubject()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: claim sub: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: claim exp: %w", err)
	}
	if exp != nil {
		expiresAt = exp.Time
	}
	return subject, expiresAt, nil
}

// Expired indica si la credencial tiene un exp vencido respecto a now.
// Un token sin exp no se considera expirado.
func Expired(credential string, now time.Time) bool {
	_, exp, err := Peek(credential)
	if err != nil {
		return true
	}
	return !exp.IsZero() && exp.Before(now)
}
