package models

// Product is a read-only copy of a catalog entry owned by the bakery backend.
// The wire names follow the backend's Spanish contract.
type Product struct {
	Code        string   `json:"codigo"`
	Name        string   `json:"nombre"`
	Category    string   `json:"categoria"`
	UnitPrice   int64    `json:"precio"`
	Description string   `json:"descripcion"`
	Images      []string `json:"imagenes"`
	Active      bool     `json:"activo"`
}
