package validators

import "go.mongodb.org/mongo-driver/bson"

var LoanValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"patron_id",
			"item_id",
			"checkout_date",
			"due_date",
			"renewed_count",
			"operator_id",
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

			"item_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"checkout_date": bson.M{
				"bsonType": "date",
			},

			"due_date": bson.M{
				"bsonType": "date",
			},

			"return_date": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"renewed_count": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"operator_id": bson.M{
				"bsonType":  "string",
				"maxLength": 128,
			},
		},
	},
}
