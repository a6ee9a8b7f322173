package models

// Assignment одна пара колонка/значение для частичного UPDATE
type Assignment struct {
	Column string
	Value  any
}

type assignments []Assignment

func add[T any](a *assignments, column string, o Optional[T]) {
	if o.Set {
		*a = append(*a, Assignment{Column: column, Value: o.sqlValue()})
	}
}

// Частичные обновления: отсутствующий ключ не меняет колонку, null очищает nullable-колонку.
// Поля вне списка игнорируются. Validate отклоняет null для NOT NULL колонок.

type ProjectPatch struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	Location    Optional[string] `json:"location"`
	Deadline    Optional[Date]   `json:"deadline"`
	Status      Optional[string] `json:"status"`
}

func (p ProjectPatch) Validate() error {
	return notNull{{"name", p.Name.Null}, {"status", p.Status.Null}}.check()
}

func (p ProjectPatch) Assignments() []Assignment {
	var a assignments
	add(&a, "name", p.Name)
	add(&a, "description", p.Description)
	add(&a, "location", p.Location)
	add(&a, "deadline", p.Deadline)
	add(&a, "status", p.Status)
	return a
}

func (p ProjectPatch) Apply(e *Project) {
	if p.Name.Set && !p.Name.Null {
		e.Name = p.Name.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Ptr()
	}
	if p.Location.Set {
		e.Location = p.Location.Ptr()
	}
	if p.Deadline.Set {
		e.Deadline = p.Deadline.Ptr()
	}
	if p.Status.Set && !p.Status.Null {
		e.Status = p.Status.Value
	}
}

type RequirementPatch struct {
	ItemName    Optional[string]  `json:"item_name"`
	Description Optional[string]  `json:"description"`
	Quantity    Optional[float64] `json:"quantity"`
	Unit        Optional[string]  `json:"unit"`
	Rate        Optional[float64] `json:"rate"`
	Category    Optional[string]  `json:"category"`
}

func (p RequirementPatch) Validate() error {
	return notNull{
		{"item_name", p.ItemName.Null},
		{"quantity", p.Quantity.Null},
		{"unit", p.Unit.Null},
	}.check()
}

func (p RequirementPatch) Assignments() []Assignment {
	var a assignments
	add(&a, "item_name", p.ItemName)
	add(&a, "description", p.Description)
	add(&a, "quantity", p.Quantity)
	add(&a, "unit", p.Unit)
	add(&a, "rate", p.Rate)
	add(&a, "category", p.Category)
	return a
}

func (p RequirementPatch) Apply(e *Requirement) {
	if p.ItemName.Set && !p.ItemName.Null {
		e.ItemName = p.ItemName.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Ptr()
	}
	if p.Quantity.Set && !p.Quantity.Null {
		e.Quantity = p.Quantity.Value
	}
	if p.Unit.Set && !p.Unit.Null {
		e.Unit = p.Unit.Value
	}
	if p.Rate.Set {
		e.Rate = p.Rate.Ptr()
	}
	if p.Category.Set {
		e.Category = p.Category.Ptr()
	}
}

type RfqPatch struct {
	Title               Optional[string] `json:"title"`
	Description         Optional[string] `json:"description"`
	Deadline            Optional[Date]   `json:"deadline"`
	Status              Optional[string] `json:"status"`
	ContactPerson       Optional[string] `json:"contact_person"`
	ContactEmail        Optional[string] `json:"contact_email"`
	ContactPhone        Optional[string] `json:"contact_phone"`
	SpecialRequirements Optional[string] `json:"special_requirements"`
}

func (p RfqPatch) Validate() error {
	return notNull{
		{"title", p.Title.Null},
		{"deadline", p.Deadline.Null},
		{"status", p.Status.Null},
	}.check()
}

func (p RfqPatch) Assignments() []Assignment {
	var a assignments
	add(&a, "title", p.Title)
	add(&a, "description", p.Description)
	add(&a, "deadline", p.Deadline)
	add(&a, "status", p.Status)
	add(&a, "contact_person", p.ContactPerson)
	add(&a, "contact_email", p.ContactEmail)
	add(&a, "contact_phone", p.ContactPhone)
	add(&a, "special_requirements", p.SpecialRequirements)
	return a
}

func (p RfqPatch) Apply(e *Rfq) {
	if p.Title.Set && !p.Title.Null {
		e.Title = p.Title.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Ptr()
	}
	if p.Deadline.Set && !p.Deadline.Null {
		e.Deadline = p.Deadline.Value
	}
	if p.Status.Set && !p.Status.Null {
		e.Status = p.Status.Value
	}
	if p.ContactPerson.Set {
		e.ContactPerson = p.ContactPerson.Ptr()
	}
	if p.ContactEmail.Set {
		e.ContactEmail = p.ContactEmail.Ptr()
	}
	if p.ContactPhone.Set {
		e.ContactPhone = p.ContactPhone.Ptr()
	}
	if p.SpecialRequirements.Set {
		e.SpecialRequirements = p.SpecialRequirements.Ptr()
	}
}

type QuotePatch struct {
	Status      Optional[string]  `json:"status"`
	TotalAmount Optional[float64] `json:"total_amount"`
}

func (p QuotePatch) Validate() error {
	return notNull{{"status", p.Status.Null}, {"total_amount", p.TotalAmount.Null}}.check()
}

func (p QuotePatch) Assignments() []Assignment {
	var a assignments
	add(&a, "status", p.Status)
	add(&a, "total_amount", p.TotalAmount)
	return a
}

func (p QuotePatch) Apply(e *Quote) {
	if p.Status.Set && !p.Status.Null {
		e.Status = p.Status.Value
	}
	if p.TotalAmount.Set && !p.TotalAmount.Null {
		e.TotalAmount = p.TotalAmount.Value
	}
}

type VendorPatch struct {
	CompanyName   Optional[string] `json:"company_name"`
	ContactPerson Optional[string] `json:"contact_person"`
	Phone         Optional[string] `json:"phone"`
	Email         Optional[string] `json:"email"`
	Address       Optional[string] `json:"address"`
	GSTNumber     Optional[string] `json:"gst_number"`
}

func (p VendorPatch) Validate() error {
	return notNull{{"company_name", p.CompanyName.Null}}.check()
}

func (p VendorPatch) Assignments() []Assignment {
	var a assignments
	add(&a, "company_name", p.CompanyName)
	add(&a, "contact_person", p.ContactPerson)
	add(&a, "phone", p.Phone)
	add(&a, "email", p.Email)
	add(&a, "address", p.Address)
	add(&a, "gst_number", p.GSTNumber)
	return a
}

func (p VendorPatch) Apply(e *Vendor) {
	if p.CompanyName.Set && !p.CompanyName.Null {
		e.CompanyName = p.CompanyName.Value
	}
	if p.ContactPerson.Set {
		e.ContactPerson = p.ContactPerson.Ptr()
	}
	if p.Phone.Set {
		e.Phone = p.Phone.Ptr()
	}
	if p.Email.Set {
		e.Email = p.Email.Ptr()
	}
	if p.Address.Set {
		e.Address = p.Address.Ptr()
	}
	if p.GSTNumber.Set {
		e.GSTNumber = p.GSTNumber.Ptr()
	}
}

// UserPatch не содержит role, email и пароль: их меняют только отдельные операции
type UserPatch struct {
	Name          Optional[string] `json:"name"`
	CompanyName   Optional[string] `json:"company_name"`
	ContactPerson Optional[string] `json:"contact_person"`
	Phone         Optional[string] `json:"phone"`
	Address       Optional[string] `json:"address"`
	GSTNumber     Optional[string] `json:"gst_number"`
}

func (p UserPatch) Validate() error {
	return notNull{{"name", p.Name.Null}}.check()
}

func (p UserPatch) Assignments() []Assignment {
	var a assignments
	add(&a, "name", p.Name)
	add(&a, "company_name", p.CompanyName)
	add(&a, "contact_person", p.ContactPerson)
	add(&a, "phone", p.Phone)
	add(&a, "address", p.Address)
	add(&a, "gst_number", p.GSTNumber)
	return a
}

func (p UserPatch) Apply(e *User) {
	if p.Name.Set && !p.Name.Null {
		e.Name = p.Name.Value
	}
	if p.CompanyName.Set {
		e.CompanyName = p.CompanyName.Ptr()
	}
	if p.ContactPerson.Set {
		e.ContactPerson = p.ContactPerson.Ptr()
	}
	if p.Phone.Set {
		e.Phone = p.Phone.Ptr()
	}
	if p.Address.Set {
		e.Address = p.Address.Ptr()
	}
	if p.GSTNumber.Set {
		e.GSTNumber = p.GSTNumber.Ptr()
	}
}
