package validators

import "go.mongodb.org/mongo-driver/bson"

var FineValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"patron_id",
			"loan_id",
			"amount",
			"amount_paid",
			"days_overdue",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"patron_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"loan_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"amount": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"amount_paid": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"days_overdue": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"unpaid", "partial", "paid", "waived"},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
