// Package forms validates submitted form input and sanitizes the text that
// passes validation.
//
// Fields can be declared sanitizing one by one:
//
//	form := forms.MustNew(
//		forms.WithField("body", forms.NewSanitizedCharField(
//			&forms.CharField{Required: true}, policy, nil)),
//	)
//
// or a whole form can share one policy, applied when it is composed:
//
//	form := forms.MustNew(
//		forms.WithField("name", &forms.CharField{Required: true, MaxLength: 64}),
//		forms.WithField("body", &forms.CharField{Required: true}),
//		forms.WithField("notify", &forms.BooleanField{}),
//		forms.Sanitize(policy, nil),
//	)
//
// For gin handlers binding into structs, Bind runs gin's validation and then
// SanitizeStruct.
package forms
