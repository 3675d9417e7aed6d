package domain

// Category — именованная группа товаров.
type Category struct {
	ID   string
	Name string
}

// Product — складская позиция. Stock — неотрицательный счётчик, который
// меняется только через операции ledger (условное списание / возврат).
type Product struct {
	ID         string
	Name       string
	Stock      int
	Price      float64
	Image      *string
	Categories []Category
}

// CreateProduct — входные данные создания товара.
type CreateProduct struct {
	Name       string
	Stock      int
	Price      float64
	Categories []string
}

// UpdateProduct — частичное обновление товара; nil-поля не меняются.
// Categories != nil полностью заменяет набор связей.
type UpdateProduct struct {
	Name       *string
	Stock      *int
	Price      *float64
	Categories *[]string
}
